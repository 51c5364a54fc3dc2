package models

import "time"

// Guest is a hotel guest, past, present or expected.
type Guest struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	RoomNumber     string     `json:"room_number"`
	CheckInDate    *time.Time `json:"check_in_date,omitempty"`
	CheckOutDate   *time.Time `json:"check_out_date,omitempty"`
	FlightNumber   *string    `json:"flight_number,omitempty"`
	ArrivalMethod  *string    `json:"arrival_method,omitempty"`
	ContactEmail   *string    `json:"contact_email,omitempty"`
	ContactPhone   *string    `json:"contact_phone,omitempty"`
	TelegramChatID *int64     `json:"telegram_chat_id,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// GuestDetail is a guest with their tickets and message history.
type GuestDetail struct {
	*Guest
	Tickets  []*Ticket  `json:"tickets"`
	Messages []*Message `json:"messages"`
}

// Arrival is an expected guest joined to the cached status of their flight.
type Arrival struct {
	Guest  *Guest        `json:"guest"`
	Flight *FlightStatus `json:"flight,omitempty"`
}

// GuestFilters contains filtering options for listing guests.
type GuestFilters struct {
	Search string // Case-insensitive substring of the name
	Room   string
}

// CreateGuestRequest contains fields for creating a guest.
type CreateGuestRequest struct {
	Name           string     `json:"name"`
	RoomNumber     string     `json:"room_number"`
	CheckInDate    *time.Time `json:"check_in_date"`
	CheckOutDate   *time.Time `json:"check_out_date"`
	FlightNumber   *string    `json:"flight_number"`
	ArrivalMethod  *string    `json:"arrival_method"`
	ContactEmail   *string    `json:"contact_email"`
	ContactPhone   *string    `json:"contact_phone"`
	TelegramChatID *int64     `json:"telegram_chat_id"`
	Notes          *string    `json:"notes"`
}

// UpdateGuestRequest is a partial update; nil fields are left unchanged.
type UpdateGuestRequest struct {
	Name           *string    `json:"name"`
	RoomNumber     *string    `json:"room_number"`
	CheckInDate    *time.Time `json:"check_in_date"`
	CheckOutDate   *time.Time `json:"check_out_date"`
	FlightNumber   *string    `json:"flight_number"`
	ArrivalMethod  *string    `json:"arrival_method"`
	ContactEmail   *string    `json:"contact_email"`
	ContactPhone   *string    `json:"contact_phone"`
	TelegramChatID *int64     `json:"telegram_chat_id"`
	Notes          *string    `json:"notes"`
}
