package model

import "gorm.io/gorm"

// ChatConversation is a two-participant thread, optionally scoped to the
// vehicle listing that prompted it. PairKey is the sorted "{lo}:{hi}" of the
// two participant ids; together with VehicleContextID it makes creation
// idempotent per pair per context.
type ChatConversation struct {
	gorm.Model
	PairKey          string            `gorm:"not null; uniqueIndex:idx_chat_pair_context" json:"-"`
	VehicleContextID string            `gorm:"uniqueIndex:idx_chat_pair_context" json:"vehicleContextId"`
	Participants     []ChatParticipant `gorm:"foreignKey:ConversationID" json:"participants"`
}

// ChatParticipant is a profile snapshot taken at conversation creation.
// It is never synced with later profile edits.
type ChatParticipant struct {
	gorm.Model
	ConversationID uint   `gorm:"not null; index" json:"-"`
	UserID         string `gorm:"not null; index" json:"userId"`
	DisplayName    string `json:"displayName"`
	AvatarURL      string `json:"avatarUrl"`
	Role           string `json:"role"`
}

type ChatMessage struct {
	gorm.Model
	ConversationID uint               `gorm:"not null; index:idx_chat_msg_conv" json:"conversationId"`
	SenderID       string             `gorm:"not null" json:"senderId"`
	Content        string             `json:"content"`
	Image          string             `json:"image,omitempty"`
	Images         []ChatMessageImage `gorm:"foreignKey:MessageID" json:"images,omitempty"`
	File           ChatFile           `gorm:"embedded; embeddedPrefix:file_" json:"file"`
	ReplyTo        uint               `gorm:"not null; default:0" json:"replyTo,omitempty"`
	Reactions      []ChatReaction     `gorm:"foreignKey:MessageID" json:"reactions"`
	ReadBy         []ChatMessageRead  `gorm:"foreignKey:MessageID" json:"readBy"`
}

type ChatMessageImage struct {
	gorm.Model
	MessageID uint   `gorm:"not null; index" json:"-"`
	URL       string `gorm:"not null" json:"url"`
}

// ChatFile describes a non-image attachment; zero URL means no file.
type ChatFile struct {
	URL  string `json:"url,omitempty"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// ChatReaction holds at most one row per (message, user, emoji).
// Reacting again with the same triple removes the row.
type ChatReaction struct {
	gorm.Model
	MessageID uint   `gorm:"not null; uniqueIndex:idx_chat_reaction" json:"-"`
	UserID    string `gorm:"not null; uniqueIndex:idx_chat_reaction" json:"userId"`
	Emoji     string `gorm:"not null; uniqueIndex:idx_chat_reaction" json:"emoji"`
}

// ChatMessageRead rows are insert-only: a user once recorded as having read
// a message is never removed.
type ChatMessageRead struct {
	gorm.Model
	MessageID uint   `gorm:"not null; uniqueIndex:idx_chat_read" json:"-"`
	UserID    string `gorm:"not null; uniqueIndex:idx_chat_read" json:"userId"`
}
