package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thefitz/companion/pkg/models"
)

// TicketSource lists tickets scheduled in a window.
type TicketSource interface {
	ListForWindow(ctx context.Context, from, to time.Time, status string) ([]*models.Ticket, error)
}

// ArrivalSource lists guests with flights checking in in a window.
type ArrivalSource interface {
	ListArrivals(ctx context.Context, from, to time.Time) ([]*models.Arrival, error)
}

// Service aggregates timelines from the ticket and guest stores.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	tickets        TicketSource
	arrivals       ArrivalSource
	loc            *time.Location
	delayThreshold time.Duration
	logger         *slog.Logger
}

// NewService creates a timeline Service. loc sets the day and hour boundaries.
func NewService(tickets TicketSource, arrivals ArrivalSource, loc *time.Location, delayThreshold time.Duration) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		tickets:        tickets,
		arrivals:       arrivals,
		loc:            loc,
		delayThreshold: delayThreshold,
		logger:         slog.Default().With("component", "timeline"),
	}
}

// Location returns the zone used for day boundaries.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Aggregate builds the timeline of the local day containing date.
func (s *Service) Aggregate(ctx context.Context, date time.Time, status string) (*Result, error) {
	from, to := DayWindow(date, s.loc)

	tickets, err := s.tickets.ListForWindow(ctx, from, to, status)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	arrivals, err := s.arrivals.ListArrivals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load arrivals: %w", err)
	}

	res := Build(tickets, arrivals, Options{
		Date:           from,
		Location:       s.loc,
		DelayThreshold: s.delayThreshold,
		Status:         status,
	})
	if dropped := len(tickets) + len(arrivals) - len(res.Items); dropped > 0 && (status == "" || status == "all") {
		s.logger.Debug("Dropped timeline records without time", "date", res.Date, "dropped", dropped)
	}
	return res, nil
}

// DayWindow returns [00:00:00.000, 23:59:59.999] of the day containing t in loc.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// ParseDate parses a YYYY-MM-DD day in loc. An empty string means the day of now.
func ParseDate(s string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if s == "" {
		return now.In(loc), nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}
