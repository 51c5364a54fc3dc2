// Package transport serves the cached flight, road and rail status shown on
// the transport board and keeps that cache fresh.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thefitz/companion/pkg/config"
	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/services"
)

// Store is the transport cache.
type Store interface {
	ListFlights(ctx context.Context) ([]*models.FlightStatus, error)
	TrackedFlightNumbers(ctx context.Context) ([]string, error)
	TouchFlights(ctx context.Context, numbers []string, at time.Time) (int, error)
	GetRoute(ctx context.Context, routeKey string) (*models.TransportStatus, error)
	UpsertRoute(ctx context.Context, st *models.TransportStatus) error
	ListByType(ctx context.Context, transportType string) ([]*models.TransportStatus, error)
}

// GuestFlights resolves a guest with the cached status of their flight.
type GuestFlights interface {
	GetWithFlight(ctx context.Context, id string) (*models.Arrival, error)
}

// Service reads the transport cache.
type Service struct {
	cfg    *config.TransportConfig
	store  Store
	guests GuestFlights
}

// NewService creates a Service.
func NewService(cfg *config.TransportConfig, store Store, guests GuestFlights) *Service {
	return &Service{cfg: cfg, store: store, guests: guests}
}

// Flights returns the cached flights by arrival time.
func (s *Service) Flights(ctx context.Context) ([]*models.FlightStatus, error) {
	return s.store.ListFlights(ctx)
}

// Traffic returns the airport-to-hotel road status.
func (s *Service) Traffic(ctx context.Context) (*models.TransportStatus, error) {
	return s.store.GetRoute(ctx, s.cfg.RouteKey)
}

// Rail returns the cached rail rows.
func (s *Service) Rail(ctx context.Context) ([]*models.TransportStatus, error) {
	return s.store.ListByType(ctx, models.TransportRail)
}

// Bus returns the cached bus rows.
func (s *Service) Bus(ctx context.Context) ([]*models.TransportStatus, error) {
	return s.store.ListByType(ctx, models.TransportBus)
}

// ETA estimates a guest's arrival at the hotel.
func (s *Service) ETA(ctx context.Context, guestID string) (*models.GuestETA, error) {
	arrival, err := s.guests.GetWithFlight(ctx, guestID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load guest flight: %w", err)
	}
	road, err := s.store.GetRoute(ctx, s.cfg.RouteKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load traffic: %w", err)
	}
	return ComputeETA(arrival.Guest, arrival.Flight, road, s.cfg.ArrivalBuffer), nil
}
