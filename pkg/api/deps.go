package api

import (
	"context"
	"time"

	"github.com/thefitz/companion/pkg/auth"
	"github.com/thefitz/companion/pkg/autoclose"
	"github.com/thefitz/companion/pkg/database"
	"github.com/thefitz/companion/pkg/lifecycle"
	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/timeline"
	"github.com/thefitz/companion/pkg/transport"
)

// HealthChecker reports database health.
type HealthChecker interface {
	Health(ctx context.Context) (*database.HealthStatus, error)
}

// TicketStore lists tickets. Mutations go through TicketLifecycle.
type TicketStore interface {
	List(ctx context.Context, filters models.TicketFilters) ([]*models.Ticket, error)
}

// TicketLifecycle is satisfied by *lifecycle.Controller.
type TicketLifecycle interface {
	Create(ctx context.Context, req models.CreateTicketRequest) (*models.Ticket, error)
	Update(ctx context.Context, ticketID string, req models.UpdateTicketRequest) (*models.Ticket, error)
	SetStatus(ctx context.Context, ticketID string, status models.TicketStatus) (*models.Ticket, error)
	Close(ctx context.Context, ticketID string) (*models.Ticket, error)
	OpenDetail(ctx context.Context, ticketID string) (*lifecycle.DetailView, error)
	AddNote(ctx context.Context, ticketID, text string, staffID *string) (*models.TicketNote, error)
}

// AutoCloseStates is satisfied by *autoclose.Manager.
type AutoCloseStates interface {
	State(ticketID string) autoclose.State
}

// GuestStore is satisfied by *services.GuestService.
type GuestStore interface {
	List(ctx context.Context, filters models.GuestFilters) ([]*models.Guest, error)
	GetDetail(ctx context.Context, id string) (*models.GuestDetail, error)
	Create(ctx context.Context, req models.CreateGuestRequest) (*models.Guest, error)
	Update(ctx context.Context, id string, req models.UpdateGuestRequest) (*models.Guest, error)
	Delete(ctx context.Context, id string) error
}

// TimelineAggregator is satisfied by *timeline.Service.
type TimelineAggregator interface {
	Aggregate(ctx context.Context, date time.Time, status string) (*timeline.Result, error)
	Location() *time.Location
}

// NoteStore is satisfied by *services.NoteService.
type NoteStore interface {
	ListForDay(ctx context.Context, from, to time.Time) ([]*models.InternalNote, error)
	Create(ctx context.Context, req models.InternalNoteRequest) (*models.InternalNote, error)
	Update(ctx context.Context, id string, req models.InternalNoteRequest) (*models.InternalNote, error)
}

// Messenger is satisfied by *messaging.Service.
type Messenger interface {
	Send(ctx context.Context, req models.SendMessageRequest) (*models.SendMessageResult, error)
	History(ctx context.Context, guestID string) ([]*models.Message, error)
}

// TransportReader is satisfied by *transport.Service.
type TransportReader interface {
	Flights(ctx context.Context) ([]*models.FlightStatus, error)
	Traffic(ctx context.Context) (*models.TransportStatus, error)
	Rail(ctx context.Context) ([]*models.TransportStatus, error)
	Bus(ctx context.Context) ([]*models.TransportStatus, error)
	ETA(ctx context.Context, guestID string) (*models.GuestETA, error)
}

// TransportRefresher is satisfied by *transport.Refresher.
type TransportRefresher interface {
	RefreshFlights(ctx context.Context) (*transport.FlightsResult, error)
	RefreshTraffic(ctx context.Context) (*transport.TrafficResult, error)
	RefreshRail(ctx context.Context) (*transport.RailResult, error)
}

// StorageStore is satisfied by *services.StorageService.
type StorageStore interface {
	List(ctx context.Context, filters models.StorageFilters) ([]*models.StorageItem, error)
	Create(ctx context.Context, req models.CreateStorageItemRequest) (*models.StorageItem, error)
	Update(ctx context.Context, id string, req models.UpdateStorageItemRequest) (*models.StorageItem, error)
	Counts(ctx context.Context) (*models.StorageCounts, error)
}

// Authenticator is satisfied by *auth.Service.
type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Me(ctx context.Context, claims *auth.Claims) (*models.StaffProfile, error)
}
