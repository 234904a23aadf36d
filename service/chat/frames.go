package chat

import (
	"encoding/json"
	"time"
)

// InboundFrame is what a client sends over the websocket. Transient: parsed,
// validated, never retained.
type InboundFrame struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

// MessageRecord is a durably stored direct message, as relayed to sessions
// and returned by the REST API.
type MessageRecord struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	RecipientID    string    `json:"recipient_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ErrorFrame is sent back on the same session in place of a success frame.
type ErrorFrame struct {
	Error string `json:"error"`
}

func ParseInboundFrame(raw []byte) (*InboundFrame, error) {
	frame := &InboundFrame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, err
	}
	return frame, nil
}
