package chat

import (
	"context"

	chatmodel "ChatGate/module/chat/model"
	svc "ChatGate/service/chat"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists direct messages. It is the persistence collaborator behind
// svc.MessageStore: the websocket pipeline and the REST handler both save
// through it before any delivery happens.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveMessage inserts the message and returns the stored record with the
// server-assigned id and timestamp.
func (s *Store) SaveMessage(ctx context.Context, sender svc.Identity, recipient uuid.UUID, content string) (*svc.MessageRecord, error) {
	id := uuid.New()
	rec := &svc.MessageRecord{
		ID:             id.String(),
		SenderID:       sender.ID.String(),
		SenderUsername: sender.Username,
		RecipientID:    recipient.String(),
		Content:        content,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO direct_messages (id, sender_id, recipient_id, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		id, sender.ID, recipient, content).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// History returns messages between uid and other in either direction, newest
// first.
func (s *Store) History(ctx context.Context, uid, other uuid.UUID, limit, offset int) ([]*svc.MessageRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.id, m.sender_id, u.username, m.recipient_id, m.content, m.created_at
		 FROM direct_messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE (m.sender_id = $1 AND m.recipient_id = $2)
		    OR (m.sender_id = $2 AND m.recipient_id = $1)
		 ORDER BY m.created_at DESC
		 LIMIT $3 OFFSET $4`,
		uid, other, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*svc.MessageRecord, 0, limit)
	for rows.Next() {
		var rec svc.MessageRecord
		var id, senderID, recipientID uuid.UUID
		if err := rows.Scan(&id, &senderID, &rec.SenderUsername, &recipientID, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.ID = id.String()
		rec.SenderID = senderID.String()
		rec.RecipientID = recipientID.String()
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Conversations returns the most recent message per partner, newest first.
func (s *Store) Conversations(ctx context.Context, uid uuid.UUID) ([]*chatmodel.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ON (m.other_id)
		        m.other_id, u.username, m.content, m.created_at
		 FROM (
		     SELECT content, created_at,
		            CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS other_id
		     FROM direct_messages
		     WHERE sender_id = $1 OR recipient_id = $1
		 ) m
		 JOIN users u ON u.id = m.other_id
		 ORDER BY m.other_id, m.created_at DESC`,
		uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*chatmodel.Conversation
	for rows.Next() {
		var conv chatmodel.Conversation
		if err := rows.Scan(&conv.UserID, &conv.Username, &conv.LastMessage, &conv.LastAt); err != nil {
			return nil, err
		}
		out = append(out, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DISTINCT ON orders by partner; callers want newest conversation first.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].LastAt.After(out[j-1].LastAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}
