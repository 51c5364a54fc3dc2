package models

import "time"

// Message delivery channels.
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// Message delivery outcomes.
const (
	MessageStatusSent   = "sent"
	MessageStatusFailed = "failed"
)

// Message is one logged delivery attempt to a guest.
type Message struct {
	ID      string    `json:"id"`
	GuestID string    `json:"guest_id"`
	Channel string    `json:"channel"`
	Subject *string   `json:"subject,omitempty"`
	Content string    `json:"content"`
	Status  string    `json:"status"`
	Error   *string   `json:"error,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// SendMessageRequest asks for a message to be delivered to a guest.
type SendMessageRequest struct {
	GuestID  string `json:"guest_id"`
	Subject  string `json:"subject"`
	Content  string `json:"content"`
	Template string `json:"template"`
	Channel  string `json:"channel"`
}

// SendMessageResult is the logged message plus the provider error, if any.
type SendMessageResult struct {
	Success bool     `json:"success"`
	Message *Message `json:"message"`
	Error   *string  `json:"error"`
}
