package models

import "time"

// TicketStatus is the lifecycle state of a ticket. The set is open-ended:
// values written by other tools pass through unchanged.
type TicketStatus string

// Known ticket statuses.
const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusConfirmed  TicketStatus = "confirmed"
	TicketStatusClosed     TicketStatus = "closed"
)

// Ticket priorities. An empty priority is treated as normal.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// DefaultTicketType is assigned when a ticket is created without a type.
const DefaultTicketType = "guest_request"

// Who closed a ticket.
const (
	ClosedByStaff = "staff"
	ClosedByAuto  = "auto"
)

// GuestRef is the guest summary joined onto tickets.
type GuestRef struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	RoomNumber   string  `json:"room_number"`
	ContactEmail *string `json:"contact_email,omitempty"`
}

// Ticket is a unit of requested work or a reminder tracked against a room or guest.
type Ticket struct {
	ID            string       `json:"id"`
	Type          string       `json:"type"`
	GuestID       *string      `json:"guest_id,omitempty"`
	GuestName     *string      `json:"guest_name,omitempty"`
	RoomNumber    *string      `json:"room_number,omitempty"`
	Summary       string       `json:"summary"`
	Department    *string      `json:"department,omitempty"`
	ScheduledTime *time.Time   `json:"scheduled_time"`
	Status        TicketStatus `json:"status"`
	Priority      string       `json:"priority"`
	AssignedTo    *string      `json:"assigned_to,omitempty"`
	ConfirmedAt   *time.Time   `json:"confirmed_at,omitempty"`
	ClosedAt      *time.Time   `json:"closed_at,omitempty"`
	ClosedBy      *string      `json:"closed_by,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	Guest *GuestRef     `json:"guest,omitempty"`
	Notes []*TicketNote `json:"notes,omitempty"`
}

// DisplayGuestName prefers the joined guest over the denormalized field.
func (t *Ticket) DisplayGuestName() string {
	if t.Guest != nil && t.Guest.Name != "" {
		return t.Guest.Name
	}
	if t.GuestName != nil {
		return *t.GuestName
	}
	return ""
}

// DisplayRoomNumber prefers the joined guest over the denormalized field.
func (t *Ticket) DisplayRoomNumber() string {
	if t.Guest != nil && t.Guest.RoomNumber != "" {
		return t.Guest.RoomNumber
	}
	if t.RoomNumber != nil {
		return *t.RoomNumber
	}
	return ""
}

// StaffRef is the staff summary joined onto notes.
type StaffRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TicketNote is a free-text note attached to a ticket.
type TicketNote struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	Staff     *StaffRef `json:"staff,omitempty"`
}

// TicketFilters contains filtering options for listing tickets.
type TicketFilters struct {
	Status  string     // "" or "all" means any status
	Type    string
	GuestID string
	From    *time.Time // Inclusive scheduled_time bounds
	To      *time.Time
}

// CreateTicketRequest contains fields for creating a ticket.
type CreateTicketRequest struct {
	Type          string     `json:"type"`
	GuestID       *string    `json:"guest_id"`
	GuestName     *string    `json:"guest_name"`
	RoomNumber    *string    `json:"room_number"`
	Summary       string     `json:"summary"`
	Department    *string    `json:"department"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	Priority      string     `json:"priority"`
	AssignedTo    *string    `json:"assigned_to"`
}

// UpdateTicketRequest is a partial update; nil fields are left unchanged.
// Status changes go through the lifecycle controller, never through Update.
type UpdateTicketRequest struct {
	Type          *string       `json:"type"`
	GuestName     *string       `json:"guest_name"`
	RoomNumber    *string       `json:"room_number"`
	Summary       *string       `json:"summary"`
	Department    *string       `json:"department"`
	ScheduledTime *time.Time    `json:"scheduled_time"`
	Priority      *string       `json:"priority"`
	AssignedTo    *string       `json:"assigned_to"`
	Status        *TicketStatus `json:"status"`
}
