package service

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"chat-service/model"

	"gorm.io/gorm"
)

// Broadcaster fans an event out to every connection joined to a room.
type Broadcaster interface {
	ToRoom(room string, event string, payload any)
	ToRoomExcept(room string, exceptId string, event string, payload any)
}

// Publisher pushes a domain event onto the platform queue.
type Publisher interface {
	Publish(action string, payload any)
}

// Chat orchestrates the conversation and message stores and the broadcast
// router. All operations take the caller identity by value.
type Chat struct {
	db        *gorm.DB
	broadcast Broadcaster
	publish   Publisher
}

func NewChat(db *gorm.DB, broadcast Broadcaster, publish Publisher) *Chat {
	return &Chat{
		db:        db,
		broadcast: broadcast,
		publish:   publish,
	}
}

// ParticipantRef identifies the counterpart of a new conversation.
type ParticipantRef struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

// Attachment carries the optional media of a message: a single image URL, an
// image set, or one file.
type Attachment struct {
	Image  string         `json:"image"`
	Images []string       `json:"images"`
	File   model.ChatFile `json:"file"`
}

// Room names the delivery group of a conversation.
func Room(conversationId uint) string {
	return strconv.FormatUint(uint64(conversationId), 10)
}

// pairKey builds the unordered participant-pair key.
func pairKey(a string, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// CreateOrGetConversation returns the conversation for the unordered pair
// (caller, counterpart) within the given vehicle context, creating it with
// profile snapshots of both sides when it does not exist yet. The owner role
// only ever receives conversations, it never initiates them.
func (s *Chat) CreateOrGetConversation(me model.CallerIdentity, counterpart ParticipantRef, vehicleContextId string) (ChatConversationView, error) {
	if !me.Identified() {
		return ChatConversationView{}, ErrUnauthorized
	}
	if counterpart.Id == "" {
		return ChatConversationView{}, fmt.Errorf("%w: counterpart id required", ErrValidation)
	}
	if me.Privileged() {
		return ChatConversationView{}, fmt.Errorf("%w: owners cannot initiate conversations", ErrForbidden)
	}

	key := pairKey(me.UserID, counterpart.Id)

	existing := model.ChatConversation{}
	err := s.db.
		Where("pair_key = ? AND vehicle_context_id = ?", key, vehicleContextId).
		Preload("Participants").
		First(&existing).Error
	if err == nil {
		return conversationView(existing, nil), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ChatConversationView{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	meRole := me.Role
	if meRole == "" {
		meRole = "user"
	}
	counterpartRole := counterpart.Role
	if counterpartRole == "" {
		counterpartRole = model.RoleOwner
	}

	conversation := model.ChatConversation{
		PairKey:          key,
		VehicleContextID: vehicleContextId,
		Participants: []model.ChatParticipant{
			{
				UserID:      me.UserID,
				DisplayName: me.DisplayName,
				AvatarURL:   me.AvatarURL,
				Role:        meRole,
			},
			{
				UserID:      counterpart.Id,
				DisplayName: counterpart.Name,
				AvatarURL:   counterpart.Avatar,
				Role:        counterpartRole,
			},
		},
	}

	if err := s.db.Create(&conversation).Error; err != nil {
		// A concurrent initiator can win the unique (pair, context) index;
		// re-read before failing.
		retry := model.ChatConversation{}
		if err := s.db.
			Where("pair_key = ? AND vehicle_context_id = ?", key, vehicleContextId).
			Preload("Participants").
			First(&retry).Error; err == nil {
			return conversationView(retry, nil), nil
		}
		return ChatConversationView{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	view := conversationView(conversation, nil)

	if s.publish != nil {
		s.publish.Publish("chat.conversation.created", view)
	}

	return view, nil
}

// SendMessage persists a message with the sender pre-recorded as a reader,
// re-reads the stored record so all server-computed fields are present, and
// only then emits message:receive plus conversation:update to the room.
func (s *Chat) SendMessage(me model.CallerIdentity, conversationId uint, content string, attachment Attachment, replyTo uint) (ChatMessageView, error) {
	if !me.Identified() {
		return ChatMessageView{}, ErrUnauthorized
	}
	if content == "" {
		return ChatMessageView{}, fmt.Errorf("%w: content required", ErrValidation)
	}
	if conversationId == 0 {
		return ChatMessageView{}, fmt.Errorf("%w: conversation id required", ErrValidation)
	}

	if err := s.db.First(&model.ChatConversation{}, conversationId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChatMessageView{}, ErrNotFound
		}
		return ChatMessageView{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	message := model.ChatMessage{
		ConversationID: conversationId,
		SenderID:       me.UserID,
		Content:        content,
		Image:          attachment.Image,
		File:           attachment.File,
		ReplyTo:        replyTo,
		ReadBy: []model.ChatMessageRead{
			{UserID: me.UserID},
		},
	}
	for _, url := range attachment.Images {
		message.Images = append(message.Images, model.ChatMessageImage{URL: url})
	}

	if err := s.db.Create(&message).Error; err != nil {
		return ChatMessageView{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	stored := model.ChatMessage{}
	if err := s.db.
		Preload("Images").
		Preload("Reactions").
		Preload("ReadBy").
		First(&stored, message.ID).Error; err != nil {
		return ChatMessageView{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	view := messageView(stored)
	s.broadcast.ToRoom(Room(conversationId), "message:receive", view)

	// Independent enrichment read; not transactional with the insert. It does
	// not mutate state, so a racing reader observing the new message first is
	// harmless.
	conversation := model.ChatConversation{}
	if err := s.db.Preload("Participants").First(&conversation, conversationId).Error; err == nil {
		s.broadcast.ToRoom(Room(conversationId), "conversation:update", conversationView(conversation, &view))
	}

	if s.publish != nil {
		s.publish.Publish("chat.message.created", view)
	}

	return view, nil
}

// ToggleReaction removes the (user, emoji) reaction when present and adds it
// otherwise, then broadcasts the authoritative reaction list. Applying it
// twice restores the prior state.
func (s *Chat) ToggleReaction(me model.CallerIdentity, messageId uint, emoji string, conversationId uint) (ChatReactionUpdate, error) {
	if !me.Identified() {
		return ChatReactionUpdate{}, ErrUnauthorized
	}
	if messageId == 0 || emoji == "" {
		return ChatReactionUpdate{}, fmt.Errorf("%w: message id and emoji required", ErrValidation)
	}

	if err := s.db.First(&model.ChatMessage{}, messageId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChatReactionUpdate{}, ErrNotFound
		}
		return ChatReactionUpdate{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	existing := model.ChatReaction{}
	err := s.db.
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageId, me.UserID, emoji).
		First(&existing).Error

	switch {
	case err == nil:
		// Hard delete: the unique (message, user, emoji) index must accept
		// the same triple again on the next toggle.
		if err := s.db.Unscoped().Delete(&existing).Error; err != nil {
			return ChatReactionUpdate{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		reaction := model.ChatReaction{
			MessageID: messageId,
			UserID:    me.UserID,
			Emoji:     emoji,
		}
		if err := s.db.Create(&reaction).Error; err != nil {
			return ChatReactionUpdate{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	default:
		return ChatReactionUpdate{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	reactions := []model.ChatReaction{}
	if err := s.db.Where("message_id = ?", messageId).Find(&reactions).Error; err != nil {
		return ChatReactionUpdate{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	update := ChatReactionUpdate{
		MessageId: messageId,
		Reactions: reactionViews(reactions),
	}
	s.broadcast.ToRoom(Room(conversationId), "message:reaction-update", update)

	return update, nil
}

// MarkRead records the caller as a reader of every message in the
// conversation it has not read yet. Read state only grows and is pulled, not
// pushed, so nothing is broadcast.
func (s *Chat) MarkRead(me model.CallerIdentity, conversationId uint) error {
	if !me.Identified() {
		return ErrUnauthorized
	}
	if conversationId == 0 {
		return fmt.Errorf("%w: conversation id required", ErrValidation)
	}

	read := s.db.Model(&model.ChatMessageRead{}).
		Select("message_id").
		Where("user_id = ?", me.UserID)

	unread := []uint{}
	if err := s.db.Model(&model.ChatMessage{}).
		Where("conversation_id = ? AND id NOT IN (?)", conversationId, read).
		Pluck("id", &unread).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if len(unread) == 0 {
		return nil
	}

	rows := make([]model.ChatMessageRead, 0, len(unread))
	for _, messageId := range unread {
		rows = append(rows, model.ChatMessageRead{
			MessageID: messageId,
			UserID:    me.UserID,
		})
	}
	if err := s.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return nil
}

// RelayTyping forwards a typing signal to every other connection in the room.
// It is never persisted and never acknowledged. exceptId is the sender's
// connection id, skipped on delivery.
func (s *Chat) RelayTyping(me model.CallerIdentity, conversationId uint, typing bool, exceptId string) error {
	if !me.Identified() {
		return ErrUnauthorized
	}

	s.broadcast.ToRoomExcept(Room(conversationId), exceptId, "typing", ChatTyping{
		ConversationId: conversationId,
		UserId:         me.UserID,
		Typing:         typing,
	})

	return nil
}

// ListMyConversations returns the conversations the caller participates in,
// each enriched with its most recent message.
func (s *Chat) ListMyConversations(me model.CallerIdentity) ([]ChatConversationView, error) {
	if !me.Identified() {
		return nil, ErrUnauthorized
	}

	mine := s.db.Model(&model.ChatParticipant{}).
		Select("conversation_id").
		Where("user_id = ?", me.UserID)

	conversations := []model.ChatConversation{}
	if err := s.db.
		Where("id IN (?)", mine).
		Preload("Participants").
		Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	views := []ChatConversationView{}
	for _, conversation := range conversations {
		views = append(views, conversationView(conversation, s.lastMessage(conversation.ID)))
	}

	return views, nil
}

// ListAllConversations is the privileged listing: every conversation, most
// recently active first. Conversations without messages sort last.
func (s *Chat) ListAllConversations(me model.CallerIdentity) ([]ChatConversationView, error) {
	if !me.Identified() {
		return nil, ErrUnauthorized
	}
	if !me.Privileged() {
		return nil, fmt.Errorf("%w: privileged role required", ErrForbidden)
	}

	conversations := []model.ChatConversation{}
	if err := s.db.Preload("Participants").Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	views := []ChatConversationView{}
	for _, conversation := range conversations {
		views = append(views, conversationView(conversation, s.lastMessage(conversation.ID)))
	}

	sort.SliceStable(views, func(i, j int) bool {
		return lastActivity(views[i]).After(lastActivity(views[j]))
	})

	return views, nil
}

// GetConversationDetail returns the conversation and its full history in
// creation order. Non-privileged callers must be participants.
func (s *Chat) GetConversationDetail(me model.CallerIdentity, conversationId uint) (ChatConversationDetails, error) {
	if !me.Identified() {
		return ChatConversationDetails{}, ErrUnauthorized
	}

	conversation := model.ChatConversation{}
	if err := s.db.Preload("Participants").First(&conversation, conversationId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChatConversationDetails{}, ErrNotFound
		}
		return ChatConversationDetails{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if !me.Privileged() && !isParticipant(conversation, me.UserID) {
		return ChatConversationDetails{}, fmt.Errorf("%w: not a participant", ErrForbidden)
	}

	messages := []model.ChatMessage{}
	if err := s.db.
		Where("conversation_id = ?", conversationId).
		Order("created_at asc, id asc").
		Preload("Images").
		Preload("Reactions").
		Preload("ReadBy").
		Find(&messages).Error; err != nil {
		return ChatConversationDetails{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	details := ChatConversationDetails{
		Details:  conversationView(conversation, nil),
		Messages: []ChatMessageView{},
	}
	for _, message := range messages {
		details.Messages = append(details.Messages, messageView(message))
	}
	if len(details.Messages) > 0 {
		last := details.Messages[len(details.Messages)-1]
		details.Details.LastMessage = &last
	}

	return details, nil
}

func (s *Chat) lastMessage(conversationId uint) *ChatMessageView {
	message := model.ChatMessage{}
	err := s.db.
		Where("conversation_id = ?", conversationId).
		Order("created_at desc, id desc").
		Preload("Images").
		Preload("Reactions").
		Preload("ReadBy").
		First(&message).Error
	if err != nil {
		return nil
	}

	view := messageView(message)
	return &view
}

func isParticipant(conversation model.ChatConversation, userId string) bool {
	for _, participant := range conversation.Participants {
		if participant.UserID == userId {
			return true
		}
	}
	return false
}
