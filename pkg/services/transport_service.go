package services

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thefitz/companion/pkg/models"
)

// TransportService reads and writes the flight and transport caches.
type TransportService struct {
	db *stdsql.DB
}

// NewTransportService creates a new TransportService
func NewTransportService(db *stdsql.DB) *TransportService {
	return &TransportService{db: db}
}

// ListFlights returns every cached flight ordered by arrival time.
func (s *TransportService) ListFlights(ctx context.Context) ([]*models.FlightStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, flight_number, origin, arrival_time, delay_minutes, status, last_updated
		FROM flight_cache ORDER BY arrival_time ASC NULLS LAST, flight_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	defer rows.Close()

	flights := []*models.FlightStatus{}
	for rows.Next() {
		var f models.FlightStatus
		if err := rows.Scan(&f.ID, &f.FlightNumber, &f.Origin, &f.ArrivalTime, &f.DelayMinutes, &f.Status, &f.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, &f)
	}
	return flights, rows.Err()
}

// TrackedFlightNumbers returns the distinct flight numbers of all guests.
func (s *TransportService) TrackedFlightNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT flight_number FROM guests WHERE flight_number IS NOT NULL ORDER BY flight_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked flights: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan flight number: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// TouchFlights ensures a cache row exists for every flight number and stamps
// last_updated. Existing arrival and delay data is kept.
func (s *TransportService) TouchFlights(ctx context.Context, numbers []string, at time.Time) (int, error) {
	updated := 0
	for _, n := range numbers {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO flight_cache (id, flight_number, last_updated) VALUES ($1, $2, $3)
			ON CONFLICT (flight_number) DO UPDATE SET last_updated = EXCLUDED.last_updated`,
			uuid.New().String(), n, at)
		if err != nil {
			return updated, fmt.Errorf("failed to touch flight %s: %w", n, err)
		}
		updated++
	}
	return updated, nil
}

// UpsertFlight stores provider data for one flight.
func (s *TransportService) UpsertFlight(ctx context.Context, f *models.FlightStatus) error {
	if f.FlightNumber == "" {
		return NewValidationError("flight_number", "required")
	}
	if f.LastUpdated.IsZero() {
		f.LastUpdated = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flight_cache (id, flight_number, origin, arrival_time, delay_minutes, status, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (flight_number) DO UPDATE SET
			origin = EXCLUDED.origin,
			arrival_time = EXCLUDED.arrival_time,
			delay_minutes = EXCLUDED.delay_minutes,
			status = EXCLUDED.status,
			last_updated = EXCLUDED.last_updated`,
		uuid.New().String(), f.FlightNumber, f.Origin, f.ArrivalTime, f.DelayMinutes, f.Status, f.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to upsert flight %s: %w", f.FlightNumber, err)
	}
	return nil
}

// GetRoute returns the cached status of a route. A route never refreshed is
// reported as unknown rather than missing.
func (s *TransportService) GetRoute(ctx context.Context, routeKey string) (*models.TransportStatus, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, route_key, transport_type, travel_time_mins, traffic_status, summary, last_updated
		FROM transport_cache WHERE route_key = $1`, routeKey)
	status, err := scanTransport(row)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return &models.TransportStatus{
				RouteKey:      routeKey,
				TransportType: models.TransportRoad,
				TrafficStatus: models.TrafficUnknown,
			}, nil
		}
		return nil, fmt.Errorf("failed to get route %s: %w", routeKey, err)
	}
	return status, nil
}

// UpsertRoute replaces the cached status of a route.
func (s *TransportService) UpsertRoute(ctx context.Context, st *models.TransportStatus) error {
	if st.RouteKey == "" {
		return NewValidationError("route_key", "required")
	}
	traffic := st.TrafficStatus
	if traffic == "" {
		traffic = models.TrafficUnknown
	}
	updated := time.Now()
	if st.LastUpdated != nil {
		updated = *st.LastUpdated
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transport_cache (id, route_key, transport_type, travel_time_mins, traffic_status, summary, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (route_key) DO UPDATE SET
			transport_type = EXCLUDED.transport_type,
			travel_time_mins = EXCLUDED.travel_time_mins,
			traffic_status = EXCLUDED.traffic_status,
			summary = EXCLUDED.summary,
			last_updated = EXCLUDED.last_updated`,
		uuid.New().String(), st.RouteKey, st.TransportType, st.TravelTimeMins, traffic, st.Summary, updated)
	if err != nil {
		return fmt.Errorf("failed to upsert route %s: %w", st.RouteKey, err)
	}
	return nil
}

// ListByType returns cached rows of one transport type, most recent first.
func (s *TransportService) ListByType(ctx context.Context, transportType string) ([]*models.TransportStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, route_key, transport_type, travel_time_mins, traffic_status, summary, last_updated
		FROM transport_cache WHERE transport_type = $1 ORDER BY last_updated DESC`, transportType)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s transport: %w", transportType, err)
	}
	defer rows.Close()

	out := []*models.TransportStatus{}
	for rows.Next() {
		st, err := scanTransport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transport row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func scanTransport(row rowScanner) (*models.TransportStatus, error) {
	var st models.TransportStatus
	if err := row.Scan(&st.ID, &st.RouteKey, &st.TransportType, &st.TravelTimeMins, &st.TrafficStatus, &st.Summary, &st.LastUpdated); err != nil {
		return nil, err
	}
	return &st, nil
}
