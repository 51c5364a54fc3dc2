package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// maxNotifyPayload stays under PostgreSQL's 8000-byte NOTIFY limit.
const maxNotifyPayload = 7900

// Publisher sends change signals.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// NotifyPublisher broadcasts changes with pg_notify. Listeners on every
// replica receive them.
type NotifyPublisher struct {
	db      *sql.DB
	channel string
}

// NewNotifyPublisher creates a NotifyPublisher on ChangesChannel.
// The db parameter should be the *sql.DB from database.Client.DB().
func NewNotifyPublisher(db *sql.DB) *NotifyPublisher {
	return &NotifyPublisher{db: db, channel: ChangesChannel}
}

// Publish sends one change.
func (p *NotifyPublisher) Publish(ctx context.Context, change Change) error {
	payload, err := encode(change)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", p.channel, payload); err != nil {
		return fmt.Errorf("pg_notify failed: %w", err)
	}
	return nil
}

// MemoryPublisher hands changes straight to a local Broker. Used when no
// LISTEN connection runs, such as single-process development and tests.
type MemoryPublisher struct {
	broker *Broker
}

// NewMemoryPublisher creates a MemoryPublisher feeding broker.
func NewMemoryPublisher(broker *Broker) *MemoryPublisher {
	return &MemoryPublisher{broker: broker}
}

// Publish broadcasts change to the broker's subscribers.
func (p *MemoryPublisher) Publish(_ context.Context, change Change) error {
	payload, err := encode(change)
	if err != nil {
		return err
	}
	p.broker.Broadcast([]byte(payload))
	return nil
}

// encode marshals a change, dropping the optional fields when the result
// would exceed the NOTIFY limit.
func encode(change Change) (string, error) {
	b, err := json.Marshal(change)
	if err != nil {
		return "", fmt.Errorf("failed to marshal change: %w", err)
	}
	if len(b) <= maxNotifyPayload {
		return string(b), nil
	}
	b, err = json.Marshal(Change{
		Type:      change.Type,
		Resource:  change.Resource,
		Action:    change.Action,
		Timestamp: change.Timestamp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal truncated change: %w", err)
	}
	return string(b), nil
}

type countedPublisher struct {
	Publisher
	count func()
}

// Counted returns p, calling count before each publish.
func Counted(p Publisher, count func()) Publisher {
	return countedPublisher{Publisher: p, count: count}
}

func (p countedPublisher) Publish(ctx context.Context, change Change) error {
	p.count()
	return p.Publisher.Publish(ctx, change)
}
