package services

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thefitz/companion/pkg/models"
)

// MessageLogService records every delivery attempt to a guest.
type MessageLogService struct {
	db *stdsql.DB
}

// NewMessageLogService creates a new MessageLogService
func NewMessageLogService(db *stdsql.DB) *MessageLogService {
	return &MessageLogService{db: db}
}

// Record stores one delivery attempt. ID and SentAt are assigned when empty.
func (s *MessageLogService) Record(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg.GuestID == "" {
		return nil, NewValidationError("guest_id", "required")
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, guest_id, channel, subject, content, status, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.ID, msg.GuestID, msg.Channel, msg.Subject, msg.Content, msg.Status, msg.Error, msg.SentAt)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to record message: %w", err)
	}
	return msg, nil
}

// ListForGuest returns the message history of a guest, newest first.
func (s *MessageLogService) ListForGuest(ctx context.Context, guestID string) ([]*models.Message, error) {
	if !validID(guestID) {
		return []*models.Message{}, nil
	}
	messages, err := queryMessages(ctx, s.db, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func queryMessages(ctx context.Context, db *stdsql.DB, guestID string) ([]*models.Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, guest_id, channel, subject, content, status, error, sent_at
		FROM messages WHERE guest_id = $1 ORDER BY sent_at DESC`, guestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.GuestID, &m.Channel, &m.Subject, &m.Content, &m.Status, &m.Error, &m.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
