package model

import (
	"time"

	"github.com/google/uuid"
)

// DirectMessage mirrors the direct_messages table.
type DirectMessage struct {
	ID          uuid.UUID `json:"id"`
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// Conversation is the most recent exchange with one partner.
type Conversation struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	LastMessage string    `json:"last_message"`
	LastAt      time.Time `json:"last_at"`
}
