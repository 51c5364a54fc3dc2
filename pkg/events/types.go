// Package events delivers "data changed, please refresh" signals to connected
// dashboards.
//
// Mutations publish a Change through PostgreSQL NOTIFY on ChangesChannel so
// every replica hears it. Each replica runs one NotifyListener on a dedicated
// pgx connection, which fans the payload out to the local Broker. Dashboards
// subscribe to the Broker over Server-Sent Events.
//
// Delivery is best effort. A dashboard that misses a signal catches up on its
// next fetch; nothing is persisted.
package events

import "time"

// ChangesChannel is the NOTIFY channel carrying every change signal.
const ChangesChannel = "companion_changes"

// EventTypeDataChanged is the type of every Change.
const EventTypeDataChanged = "data.changed"

// Resources that publish changes.
const (
	ResourceTicket    = "ticket"
	ResourceGuest     = "guest"
	ResourceNote      = "note"
	ResourceMessage   = "message"
	ResourceStorage   = "storage"
	ResourceTransport = "transport"
)

// Change actions.
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionStatus     = "status_changed"
	ActionAutoClosed = "auto_closed"
	ActionRefreshed  = "refreshed"
)

// Change is the payload of a data-changed signal.
type Change struct {
	Type      string    `json:"type"`
	Resource  string    `json:"resource"`
	Action    string    `json:"action"`
	ID        string    `json:"id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChange builds a Change stamped with the current time.
func NewChange(resource, action, id string) Change {
	return Change{
		Type:      EventTypeDataChanged,
		Resource:  resource,
		Action:    action,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// WithStatus returns a copy of c carrying a ticket status.
func (c Change) WithStatus(status string) Change {
	c.Status = status
	return c
}
