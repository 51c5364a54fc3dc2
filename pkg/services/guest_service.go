package services

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/thefitz/companion/pkg/models"
)

var guestColumns = []string{
	"id", "name", "room_number", "check_in_date", "check_out_date", "flight_number",
	"arrival_method", "contact_email", "contact_phone", "telegram_chat_id", "notes",
	"created_at", "updated_at",
}

var flightColumns = []string{
	"id", "flight_number", "origin", "arrival_time", "delay_minutes", "status", "last_updated",
}

// GuestService manages guests and their arrival data.
type GuestService struct {
	db *stdsql.DB
}

// NewGuestService creates a new GuestService
func NewGuestService(db *stdsql.DB) *GuestService {
	return &GuestService{db: db}
}

// List returns guests, newest first.
func (s *GuestService) List(ctx context.Context, filters models.GuestFilters) ([]*models.Guest, error) {
	b := postgres()
	g := b.Table("guests").As("g")
	sel := b.Select(columns(g, guestColumns)...).From(g)
	if filters.Search != "" {
		sel.Where(sql.ContainsFold(g.C("name"), filters.Search))
	}
	if filters.Room != "" {
		sel.Where(sql.EQ(g.C("room_number"), filters.Room))
	}
	sel.OrderBy(g.C("created_at") + " DESC")

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	defer rows.Close()

	guests := []*models.Guest{}
	for rows.Next() {
		guest, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guest: %w", err)
		}
		guests = append(guests, guest)
	}
	return guests, rows.Err()
}

// Get returns a guest without related records.
func (s *GuestService) Get(ctx context.Context, id string) (*models.Guest, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	b := postgres()
	g := b.Table("guests").As("g")
	query, args := b.Select(columns(g, guestColumns)...).From(g).Where(sql.EQ(g.C("id"), id)).Query()

	guest, err := scanGuest(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	return guest, nil
}

// GetDetail returns a guest with their tickets and message history, newest first.
func (s *GuestService) GetDetail(ctx context.Context, id string) (*models.GuestDetail, error) {
	guest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sel, t := ticketSelector()
	sel.Where(sql.EQ(t.C("guest_id"), id)).OrderBy(t.C("created_at") + " DESC")
	tickets, err := queryTickets(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to list guest tickets: %w", err)
	}

	messages, err := queryMessages(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list guest messages: %w", err)
	}

	return &models.GuestDetail{Guest: guest, Tickets: tickets, Messages: messages}, nil
}

// Create inserts a new guest.
func (s *GuestService) Create(ctx context.Context, req models.CreateGuestRequest) (*models.Guest, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewValidationError("name", "required")
	}
	if strings.TrimSpace(req.RoomNumber) == "" {
		return nil, NewValidationError("room_number", "required")
	}

	now := time.Now()
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guests (id, name, room_number, check_in_date, check_out_date, flight_number,
			arrival_method, contact_email, contact_phone, telegram_chat_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		id, req.Name, req.RoomNumber, req.CheckInDate, req.CheckOutDate, normalizeFlight(req.FlightNumber),
		req.ArrivalMethod, req.ContactEmail, req.ContactPhone, req.TelegramChatID, req.Notes, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create guest: %w", err)
	}
	return s.Get(ctx, id)
}

// Update applies a partial update.
func (s *GuestService) Update(ctx context.Context, id string, req models.UpdateGuestRequest) (*models.Guest, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, NewValidationError("name", "must not be empty")
	}
	if req.RoomNumber != nil && strings.TrimSpace(*req.RoomNumber) == "" {
		return nil, NewValidationError("room_number", "must not be empty")
	}

	u := postgres().Update("guests")
	setString := func(col string, v *string) {
		if v != nil {
			u.Set(col, *v)
		}
	}
	setString("name", req.Name)
	setString("room_number", req.RoomNumber)
	setString("arrival_method", req.ArrivalMethod)
	setString("contact_email", req.ContactEmail)
	setString("contact_phone", req.ContactPhone)
	setString("notes", req.Notes)
	if req.FlightNumber != nil {
		if f := normalizeFlight(req.FlightNumber); f != nil {
			u.Set("flight_number", *f)
		} else {
			u.SetNull("flight_number")
		}
	}
	if req.CheckInDate != nil {
		u.Set("check_in_date", *req.CheckInDate)
	}
	if req.CheckOutDate != nil {
		u.Set("check_out_date", *req.CheckOutDate)
	}
	if req.TelegramChatID != nil {
		u.Set("telegram_chat_id", *req.TelegramChatID)
	}
	u.Set("updated_at", time.Now())
	u.Where(sql.EQ("id", id))

	if err := execUpdate(ctx, s.db, u); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update guest: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a guest. Their messages go with them; tickets keep the
// denormalized guest name.
func (s *GuestService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM guests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete guest: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListArrivals returns guests with a flight checking in within [from, to],
// each joined to the cached status of their flight when one exists.
func (s *GuestService) ListArrivals(ctx context.Context, from, to time.Time) ([]*models.Arrival, error) {
	b := postgres()
	g := b.Table("guests").As("g")
	f := b.Table("flight_cache").As("f")
	cols := append(columns(g, guestColumns), columns(f, flightColumns)...)
	sel := b.Select(cols...).From(g).
		LeftJoin(f).On(g.C("flight_number"), f.C("flight_number")).
		Where(sql.And(
			sql.NotNull(g.C("flight_number")),
			sql.GTE(g.C("check_in_date"), from),
			sql.LTE(g.C("check_in_date"), to),
		)).
		OrderBy(g.C("check_in_date"))

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list arrivals: %w", err)
	}
	defer rows.Close()

	arrivals := []*models.Arrival{}
	for rows.Next() {
		arrival, err := scanArrival(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan arrival: %w", err)
		}
		arrivals = append(arrivals, arrival)
	}
	return arrivals, rows.Err()
}

// GetWithFlight returns a guest joined to their cached flight status.
func (s *GuestService) GetWithFlight(ctx context.Context, id string) (*models.Arrival, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	b := postgres()
	g := b.Table("guests").As("g")
	f := b.Table("flight_cache").As("f")
	cols := append(columns(g, guestColumns), columns(f, flightColumns)...)
	query, args := b.Select(cols...).From(g).
		LeftJoin(f).On(g.C("flight_number"), f.C("flight_number")).
		Where(sql.EQ(g.C("id"), id)).
		Query()

	arrival, err := scanArrival(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get guest flight: %w", err)
	}
	return arrival, nil
}

// normalizeFlight upper-cases a flight number and maps blank to nil.
func normalizeFlight(f *string) *string {
	if f == nil {
		return nil
	}
	v := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(*f), " ", ""))
	if v == "" {
		return nil
	}
	return &v
}

func guestDest(g *models.Guest) []any {
	return []any{
		&g.ID, &g.Name, &g.RoomNumber, &g.CheckInDate, &g.CheckOutDate, &g.FlightNumber,
		&g.ArrivalMethod, &g.ContactEmail, &g.ContactPhone, &g.TelegramChatID, &g.Notes,
		&g.CreatedAt, &g.UpdatedAt,
	}
}

func scanGuest(row rowScanner) (*models.Guest, error) {
	var g models.Guest
	if err := row.Scan(guestDest(&g)...); err != nil {
		return nil, err
	}
	return &g, nil
}

func scanArrival(row rowScanner) (*models.Arrival, error) {
	var g models.Guest
	var (
		fID, fNumber, fOrigin, fStatus *string
		fArrival, fUpdated             *time.Time
		fDelay                         *int
	)
	dest := append(guestDest(&g), &fID, &fNumber, &fOrigin, &fArrival, &fDelay, &fStatus, &fUpdated)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	arrival := &models.Arrival{Guest: &g}
	if fID != nil {
		flight := &models.FlightStatus{
			ID:          *fID,
			Origin:      fOrigin,
			ArrivalTime: fArrival,
			Status:      fStatus,
		}
		if fNumber != nil {
			flight.FlightNumber = *fNumber
		}
		if fDelay != nil {
			flight.DelayMinutes = *fDelay
		}
		if fUpdated != nil {
			flight.LastUpdated = *fUpdated
		}
		arrival.Flight = flight
	}
	return arrival, nil
}
