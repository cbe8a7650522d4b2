package models

import (
	"time"
)

// DefaultConversationTitle is used when a conversation is created without a title
const DefaultConversationTitle = "Conversation"

// ConversationID identifies a conversation row
type ConversationID int64

// MessageID identifies a message row
type MessageID int64

// SummaryID identifies a summary row
type SummaryID string

// Conversation represents a chat conversation owned by a single user
type Conversation struct {
	ID          ConversationID `json:"id"`
	FirebaseUID string         `json:"firebaseUid"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// OwnerID returns the identifier of the user owning the conversation
func (c Conversation) OwnerID() string {
	return c.FirebaseUID
}

// ConversationOverview is the listing projection of a conversation (no owner, no messages)
type ConversationOverview struct {
	ID        ConversationID `json:"id"`
	Title     string         `json:"title"`
	Summary   string         `json:"summary"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ConversationWithMessages is a conversation together with its messages ordered by timestamp
type ConversationWithMessages struct {
	Conversation
	Messages []Message `json:"messages"`
}

// Message represents a message in a conversation
type Message struct {
	ID             MessageID      `json:"id"`
	ConversationID ConversationID `json:"conversationId"`
	Content        string         `json:"content"`
	IsFromUser     bool           `json:"isFromUser"`
	Timestamp      time.Time      `json:"timestamp"`
}

// NewMessage carries the fields required to append a message
type NewMessage struct {
	ConversationID ConversationID
	Content        string
	IsFromUser     bool
}

// Summary is a free-text summary owned by a user, optionally tied to a conversation
type Summary struct {
	ID             SummaryID       `json:"id"`
	FirebaseUID    string          `json:"firebaseUid"`
	ConversationID *ConversationID `json:"conversationId"`
	Context        *string         `json:"context"`
	Summary        string          `json:"summary"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OwnerID returns the identifier of the user owning the summary
func (s Summary) OwnerID() string {
	return s.FirebaseUID
}

// SummaryOverview is the listing projection of a summary
type SummaryOverview struct {
	ID             SummaryID       `json:"id"`
	ConversationID *ConversationID `json:"conversationId"`
	Context        *string         `json:"context"`
	Summary        string          `json:"summary"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// SummaryWithConversation is a summary together with its linked conversation, if any
type SummaryWithConversation struct {
	Summary
	Conversation *Conversation `json:"conversation"`
}

// NewSummary carries the fields of a summary row to insert or upsert
type NewSummary struct {
	FirebaseUID    string
	ConversationID *ConversationID
	Context        *string
	// ReplaceContext controls whether an upsert hitting an existing row overwrites its context
	ReplaceContext bool
	Summary        string
}

// SummaryPatch describes a partial update of a summary; nil fields are preserved
type SummaryPatch struct {
	Summary *string
	Context *string
}
