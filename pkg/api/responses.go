package api

import (
	"time"

	"github.com/thefitz/companion/pkg/autoclose"
	"github.com/thefitz/companion/pkg/database"
	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/services"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string                    `json:"status"`
	Version   string                    `json:"version"`
	Timestamp time.Time                 `json:"timestamp"`
	Database  *database.HealthStatus    `json:"database,omitempty"`
	Error     string                    `json:"error,omitempty"`
	Warnings  []*services.SystemWarning `json:"warnings,omitempty"`
}

// TicketDetailResponse is returned by GET /api/tickets/:id. The ticket
// fields are inlined so the dashboard reads it like a plain ticket.
type TicketDetailResponse struct {
	*models.Ticket
	Notes     []*models.TicketNote `json:"notes"`
	AutoClose autoclose.State      `json:"auto_close"`
}

// CronFlightsResponse is returned by GET /api/cron/flights.
type CronFlightsResponse struct {
	Message   string     `json:"message"`
	Tracked   *int       `json:"tracked,omitempty"`
	Updated   *int       `json:"updated,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// CronTrafficResponse is returned by GET /api/cron/traffic.
type CronTrafficResponse struct {
	Message        string    `json:"message"`
	TravelTimeMins *int      `json:"travel_time_mins"`
	TrafficStatus  string    `json:"traffic_status"`
	Timestamp      time.Time `json:"timestamp"`
}

// CronTransportResponse is returned by GET /api/cron/transport.
type CronTransportResponse struct {
	Message     string    `json:"message"`
	RailSummary string    `json:"rail_summary,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// TicketStatusRequest is the body of PUT /api/tickets/:id/status.
type TicketStatusRequest struct {
	Status models.TicketStatus `json:"status"`
}

// TicketNoteRequest is the body of POST /api/tickets/:id/notes.
type TicketNoteRequest struct {
	Note string `json:"note"`
}
