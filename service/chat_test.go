package service

import (
	"errors"
	"testing"
	"time"

	"chat-service/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type emission struct {
	Room    string
	Event   string
	Payload any
}

// recordingBroadcaster captures room emissions instead of delivering them.
type recordingBroadcaster struct {
	emissions []emission
	excepted  []string
}

func (b *recordingBroadcaster) ToRoom(room string, event string, payload any) {
	b.emissions = append(b.emissions, emission{Room: room, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) ToRoomExcept(room string, exceptId string, event string, payload any) {
	b.emissions = append(b.emissions, emission{Room: room, Event: event, Payload: payload})
	b.excepted = append(b.excepted, exceptId)
}

func newTestChat(t *testing.T) (*Chat, *recordingBroadcaster, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.ChatConversation{},
		&model.ChatParticipant{},
		&model.ChatMessage{},
		&model.ChatMessageImage{},
		&model.ChatReaction{},
		&model.ChatMessageRead{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	broadcast := &recordingBroadcaster{}
	return NewChat(db, broadcast, nil), broadcast, db
}

func buyer(id string) model.CallerIdentity {
	return model.CallerIdentity{
		UserID:      id,
		DisplayName: "Buyer " + id,
		AvatarURL:   "https://cdn.example/" + id + ".png",
		Role:        "user",
	}
}

func owner(id string) model.CallerIdentity {
	return model.CallerIdentity{UserID: id, Role: model.RoleOwner}
}

func mustConversation(t *testing.T, chat *Chat, me model.CallerIdentity, counterpartId string, vehicle string) ChatConversationView {
	t.Helper()

	view, err := chat.CreateOrGetConversation(me, ParticipantRef{Id: counterpartId}, vehicle)
	if err != nil {
		t.Fatalf("CreateOrGetConversation failed: %v", err)
	}
	return view
}

func TestCreateOrGetConversationIdempotent(t *testing.T) {
	chat, _, db := newTestChat(t)

	first := mustConversation(t, chat, buyer("u1"), "u2", "veh-42")
	second := mustConversation(t, chat, buyer("u1"), "u2", "veh-42")

	if first.Id != second.Id {
		t.Errorf("expected same conversation, got %d and %d", first.Id, second.Id)
	}

	// the unordered pair resolves to the same conversation from either side
	reversed := mustConversation(t, chat, buyer("u2"), "u1", "veh-42")
	if reversed.Id != first.Id {
		t.Errorf("reversed pair created %d, want %d", reversed.Id, first.Id)
	}

	var count int64
	db.Model(&model.ChatConversation{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 conversation row, got %d", count)
	}

	if len(first.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(first.Participants))
	}
}

func TestCreateOrGetConversationContextMultiplicity(t *testing.T) {
	chat, _, _ := newTestChat(t)

	withContext := mustConversation(t, chat, buyer("u1"), "u2", "veh-42")
	noContext := mustConversation(t, chat, buyer("u1"), "u2", "")

	if withContext.Id == noContext.Id {
		t.Error("expected separate conversations per vehicle context")
	}

	noContextAgain := mustConversation(t, chat, buyer("u1"), "u2", "")
	if noContextAgain.Id != noContext.Id {
		t.Errorf("no-context creation not idempotent: %d vs %d", noContextAgain.Id, noContext.Id)
	}
}

func TestCreateOrGetConversationErrors(t *testing.T) {
	chat, _, _ := newTestChat(t)

	if _, err := chat.CreateOrGetConversation(model.CallerIdentity{}, ParticipantRef{Id: "u2"}, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	if _, err := chat.CreateOrGetConversation(buyer("u1"), ParticipantRef{}, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	if _, err := chat.CreateOrGetConversation(owner("o1"), ParticipantRef{Id: "u2"}, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestSendMessagePersistsThenBroadcasts(t *testing.T) {
	chat, broadcast, _ := newTestChat(t)
	conversation := mustConversation(t, chat, buyer("u1"), "u2", "veh-42")

	message, err := chat.SendMessage(buyer("u1"), conversation.Id, "Hello", Attachment{}, 0)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if message.Id == 0 {
		t.Error("expected server-assigned id")
	}
	if len(message.ReadBy) != 1 || message.ReadBy[0] != "u1" {
		t.Errorf("expected readBy = [u1], got %v", message.ReadBy)
	}

	if len(broadcast.emissions) != 2 {
		t.Fatalf("expected 2 emissions, got %d", len(broadcast.emissions))
	}

	receive := broadcast.emissions[0]
	if receive.Event != "message:receive" || receive.Room != Room(conversation.Id) {
		t.Errorf("unexpected first emission: %+v", receive)
	}
	if _, ok := receive.Payload.(ChatMessageView); !ok {
		t.Errorf("message:receive payload has type %T", receive.Payload)
	}

	update := broadcast.emissions[1]
	if update.Event != "conversation:update" {
		t.Errorf("unexpected second emission: %+v", update)
	}
	enriched, ok := update.Payload.(ChatConversationView)
	if !ok {
		t.Fatalf("conversation:update payload has type %T", update.Payload)
	}
	if len(enriched.Participants) != 2 {
		t.Errorf("expected participants on conversation:update, got %d", len(enriched.Participants))
	}
}

func TestSendMessageAttachment(t *testing.T) {
	chat, _, _ := newTestChat(t)
	conversation := mustConversation(t, chat, buyer("u1"), "u2", "")

	attachment := Attachment{
		Images: []string{"https://cdn.example/a.png", "https://cdn.example/b.png"},
		File: model.ChatFile{
			URL:  "https://cdn.example/doc.pdf",
			Name: "doc.pdf",
			Type: "application/pdf",
			Size: 1024,
		},
	}

	message, err := chat.SendMessage(buyer("u1"), conversation.Id, "see attached", attachment, 0)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if len(message.Images) != 2 {
		t.Errorf("expected 2 images, got %v", message.Images)
	}
	if message.File == nil || message.File.Name != "doc.pdf" {
		t.Errorf("expected file attachment, got %+v", message.File)
	}
}

func TestSendMessageErrors(t *testing.T) {
	chat, broadcast, _ := newTestChat(t)
	conversation := mustConversation(t, chat, buyer("u1"), "u2", "")

	if _, err := chat.SendMessage(buyer("u1"), conversation.Id, "", Attachment{}, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation on empty content, got %v", err)
	}
	if _, err := chat.SendMessage(buyer("u1"), 9999, "hi", Attachment{}, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown conversation, got %v", err)
	}
	if _, err := chat.SendMessage(model.CallerIdentity{}, conversation.Id, "hi", Attachment{}, 0); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	if len(broadcast.emissions) != 0 {
		t.Errorf("failed sends must not broadcast, got %d emissions", len(broadcast.emissions))
	}
}

func TestToggleReactionRoundTrip(t *testing.T) {
	chat, broadcast, _ := newTestChat(t)
	conversation := mustConversation(t, chat, buyer("u1"), "u2", "")
	message, err := chat.SendMessage(buyer("u1"), conversation.Id, "Hello", Attachment{}, 0)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	added, err := chat.ToggleReaction(buyer("u2"), message.Id, "👍", conversation.Id)
	if err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}
	if len(added.Reactions) != 1 || added.Reactions[0].UserID != "u2" || added.Reactions[0].Emoji != "👍" {
		t.Errorf("unexpected reactions after add: %+v", added.Reactions)
	}

	removed, err := chat.ToggleReaction(buyer("u2"), message.Id, "👍", conversation.Id)
	if err != nil {
		t.Fatalf("second ToggleReaction failed: %v", err)
	}
	if len(removed.Reactions) != 0 {
		t.Errorf("expected empty reactions after second toggle, got %+v", removed.Reactions)
	}

	// toggling off must free the (user, emoji) slot for a later re-add
	readded, err := chat.ToggleReaction(buyer("u2"), message.Id, "👍", conversation.Id)
	if err != nil {
		t.Fatalf("re-add after toggle-off failed: %v", err)
	}
	if len(readded.Reactions) != 1 {
		t.Errorf("expected 1 reaction after re-add, got %+v", readded.Reactions)
	}

	for _, e := range broadcast.emissions {
		if e.Event == "message:reaction-update" {
			if _, ok := e.Payload.(ChatReactionUpdate); !ok {
				t.Errorf("reaction-update payload has type %T", e.Payload)
			}
		}
	}

	if _, err := chat.ToggleReaction(buyer("u2"), 9999, "👍", conversation.Id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown message, got %v", err)
	}
}

func TestMarkReadMonotonic(t *testing.T) {
	chat, _, _ := newTestChat(t)
	conversation := mustConversation(t, chat, buyer("u1"), "u2", "")

	for _, content := range []string{"one", "two"} {
		if _, err := chat.SendMessage(buyer("u1"), conversation.Id, content, Attachment{}, 0); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
	}

	if err := chat.MarkRead(buyer("u2"), conversation.Id); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	details, err := chat.GetConversationDetail(buyer("u2"), conversation.Id)
	if err != nil {
		t.Fatalf("GetConversationDetail failed: %v", err)
	}
	for _, message := range details.Messages {
		if len(message.ReadBy) != 2 {
			t.Errorf("expected readBy of 2 on message %d, got %v", message.Id, message.ReadBy)
		}
	}

	// marking again never shrinks the set
	if err := chat.MarkRead(buyer("u2"), conversation.Id); err != nil {
		t.Fatalf("second MarkRead failed: %v", err)
	}
	again, _ := chat.GetConversationDetail(buyer("u2"), conversation.Id)
	for i, message := range again.Messages {
		if len(message.ReadBy) < len(details.Messages[i].ReadBy) {
			t.Errorf("readBy shrank on message %d", message.Id)
		}
	}
}

func TestGetConversationDetailOrderingAndAuthorization(t *testing.T) {
	chat, _, db := newTestChat(t)
	conversation := mustConversation(t, chat, buyer("u1"), "u2", "")

	for _, content := range []string{"first", "second", "third"} {
		if _, err := chat.SendMessage(buyer("u1"), conversation.Id, content, Attachment{}, 0); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
	}

	// spread message timestamps so ordering is meaningful
	base := time.Now().Add(-time.Hour)
	messages := []model.ChatMessage{}
	db.Order("id asc").Find(&messages)
	for i, message := range messages {
		db.Model(&model.ChatMessage{}).Where("id = ?", message.ID).
			Update("created_at", base.Add(time.Duration(i)*time.Minute))
	}

	details, err := chat.GetConversationDetail(buyer("u2"), conversation.Id)
	if err != nil {
		t.Fatalf("GetConversationDetail failed: %v", err)
	}
	if len(details.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(details.Messages))
	}
	for i := 1; i < len(details.Messages); i++ {
		if details.Messages[i].Created.Before(details.Messages[i-1].Created) {
			t.Errorf("history not ascending at index %d", i)
		}
	}

	if _, err := chat.GetConversationDetail(buyer("u3"), conversation.Id); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-participant, got %v", err)
	}
	if _, err := chat.GetConversationDetail(owner("admin-owner"), conversation.Id); err != nil {
		t.Errorf("privileged caller must never be forbidden, got %v", err)
	}
	if _, err := chat.GetConversationDetail(buyer("u1"), 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := chat.GetConversationDetail(model.CallerIdentity{}, conversation.Id); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListMyConversations(t *testing.T) {
	chat, _, _ := newTestChat(t)

	mine := mustConversation(t, chat, buyer("u1"), "u2", "veh-1")
	mustConversation(t, chat, buyer("u3"), "u4", "veh-2")

	if _, err := chat.SendMessage(buyer("u1"), mine.Id, "Hello", Attachment{}, 0); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	views, err := chat.ListMyConversations(buyer("u1"))
	if err != nil {
		t.Fatalf("ListMyConversations failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(views))
	}
	if views[0].Id != mine.Id {
		t.Errorf("listed conversation %d, want %d", views[0].Id, mine.Id)
	}
	if views[0].LastMessage == nil || views[0].LastMessage.Content != "Hello" {
		t.Errorf("expected lastMessage enrichment, got %+v", views[0].LastMessage)
	}

	if _, err := chat.ListMyConversations(model.CallerIdentity{}); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListAllConversationsSortedByRecency(t *testing.T) {
	chat, _, db := newTestChat(t)

	older := mustConversation(t, chat, buyer("u1"), "u2", "veh-1")
	newer := mustConversation(t, chat, buyer("u3"), "u4", "veh-2")
	empty := mustConversation(t, chat, buyer("u5"), "u6", "veh-3")

	olderMsg, err := chat.SendMessage(buyer("u1"), older.Id, "old", Attachment{}, 0)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	newerMsg, err := chat.SendMessage(buyer("u3"), newer.Id, "new", Attachment{}, 0)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	now := time.Now()
	db.Model(&model.ChatMessage{}).Where("id = ?", olderMsg.Id).Update("created_at", now.Add(-time.Hour))
	db.Model(&model.ChatMessage{}).Where("id = ?", newerMsg.Id).Update("created_at", now)

	views, err := chat.ListAllConversations(owner("admin-owner"))
	if err != nil {
		t.Fatalf("ListAllConversations failed: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(views))
	}
	if views[0].Id != newer.Id || views[1].Id != older.Id || views[2].Id != empty.Id {
		t.Errorf("unexpected order: %d, %d, %d", views[0].Id, views[1].Id, views[2].Id)
	}
	if views[2].LastMessage != nil {
		t.Errorf("expected message-less conversation last with nil lastMessage")
	}

	if _, err := chat.ListAllConversations(buyer("u1")); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-privileged caller, got %v", err)
	}
}

func TestRelayTyping(t *testing.T) {
	chat, broadcast, _ := newTestChat(t)

	if err := chat.RelayTyping(buyer("u1"), 7, true, "socket-1"); err != nil {
		t.Fatalf("RelayTyping failed: %v", err)
	}

	if len(broadcast.emissions) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(broadcast.emissions))
	}
	typing := broadcast.emissions[0]
	if typing.Event != "typing" || typing.Room != "7" {
		t.Errorf("unexpected emission: %+v", typing)
	}
	if len(broadcast.excepted) != 1 || broadcast.excepted[0] != "socket-1" {
		t.Errorf("expected sender socket excluded, got %v", broadcast.excepted)
	}

	if err := chat.RelayTyping(model.CallerIdentity{}, 7, true, "socket-1"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
