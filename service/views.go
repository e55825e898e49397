package service

import (
	"time"

	"chat-service/model"
)

// Wire shapes shared by the REST controllers and the socket router.

type ChatParticipantView struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	Role        string `json:"role"`
}

type ChatReactionView struct {
	UserID string `json:"userId"`
	Emoji  string `json:"emoji"`
}

type ChatFileView struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type ChatMessageView struct {
	Id           uint               `json:"id"`
	Created      time.Time          `json:"created"`
	Conversation uint               `json:"conversationId"`
	Sender       string             `json:"senderId"`
	Content      string             `json:"content"`
	Image        string             `json:"image,omitempty"`
	Images       []string           `json:"images,omitempty"`
	File         *ChatFileView      `json:"file,omitempty"`
	ReplyTo      uint               `json:"replyTo,omitempty"`
	Reactions    []ChatReactionView `json:"reactions"`
	ReadBy       []string           `json:"readBy"`
}

type ChatConversationView struct {
	Id               uint                  `json:"id"`
	Created          time.Time             `json:"created"`
	VehicleContextId string                `json:"vehicleContextId,omitempty"`
	Participants     []ChatParticipantView `json:"participants"`
	LastMessage      *ChatMessageView      `json:"lastMessage"`
}

type ChatConversationDetails struct {
	Details  ChatConversationView `json:"conversation"`
	Messages []ChatMessageView    `json:"messages"`
}

type ChatReactionUpdate struct {
	MessageId uint               `json:"messageId"`
	Reactions []ChatReactionView `json:"reactions"`
}

type ChatTyping struct {
	ConversationId uint   `json:"conversationId"`
	UserId         string `json:"userId"`
	Typing         bool   `json:"typing"`
}

// lastActivity orders conversations for the privileged listing; a
// conversation with no messages sorts as epoch zero.
func lastActivity(view ChatConversationView) time.Time {
	if view.LastMessage == nil {
		return time.Time{}
	}
	return view.LastMessage.Created
}

func participantViews(participants []model.ChatParticipant) []ChatParticipantView {
	views := []ChatParticipantView{}
	for _, p := range participants {
		views = append(views, ChatParticipantView{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			Role:        p.Role,
		})
	}
	return views
}

func reactionViews(reactions []model.ChatReaction) []ChatReactionView {
	views := []ChatReactionView{}
	for _, r := range reactions {
		views = append(views, ChatReactionView{
			UserID: r.UserID,
			Emoji:  r.Emoji,
		})
	}
	return views
}

func messageView(message model.ChatMessage) ChatMessageView {
	view := ChatMessageView{
		Id:           message.ID,
		Created:      message.CreatedAt,
		Conversation: message.ConversationID,
		Sender:       message.SenderID,
		Content:      message.Content,
		Image:        message.Image,
		ReplyTo:      message.ReplyTo,
		Reactions:    reactionViews(message.Reactions),
		ReadBy:       []string{},
	}

	for _, image := range message.Images {
		view.Images = append(view.Images, image.URL)
	}

	if message.File.URL != "" {
		view.File = &ChatFileView{
			URL:  message.File.URL,
			Name: message.File.Name,
			Type: message.File.Type,
			Size: message.File.Size,
		}
	}

	for _, read := range message.ReadBy {
		view.ReadBy = append(view.ReadBy, read.UserID)
	}

	return view
}

func conversationView(conversation model.ChatConversation, lastMessage *ChatMessageView) ChatConversationView {
	return ChatConversationView{
		Id:               conversation.ID,
		Created:          conversation.CreatedAt,
		VehicleContextId: conversation.VehicleContextID,
		Participants:     participantViews(conversation.Participants),
		LastMessage:      lastMessage,
	}
}
