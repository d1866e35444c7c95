package types

import "time"

// MaxSubjectLen bounds a conversation subject
const MaxSubjectLen = 200

// Conversation is a support thread opened by a customer
type Conversation struct {
	ID         int64
	CustomerID string
	Subject    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Message is one entry in a conversation
type Message struct {
	ID             int64
	ConversationID int64
	UserID         string
	Role           MessageRole
	Content        string
	IsRead         bool
	CreatedAt      time.Time
}

// ConversationSummary is the listing form of a conversation
type ConversationSummary struct {
	ID      int64
	Subject string
}
