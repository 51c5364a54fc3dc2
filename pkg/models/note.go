package models

import "time"

// InternalNote is a staff note on the day's operations board.
type InternalNote struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Priority  string    `json:"priority"`
	StaffID   *string   `json:"staff_id,omitempty"`
	Staff     *StaffRef `json:"staff,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InternalNoteRequest creates or replaces an internal note.
type InternalNoteRequest struct {
	Content  string  `json:"content"`
	Priority string  `json:"priority"`
	StaffID  *string `json:"staff_id"`
}
