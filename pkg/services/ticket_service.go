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

var ticketColumns = []string{
	"id", "type", "guest_id", "guest_name", "room_number", "summary", "department",
	"scheduled_time", "status", "priority", "assigned_to", "confirmed_at", "closed_at",
	"closed_by", "created_at", "updated_at",
}

// TicketService manages tickets and their notes.
type TicketService struct {
	db *stdsql.DB
}

// NewTicketService creates a new TicketService
func NewTicketService(db *stdsql.DB) *TicketService {
	return &TicketService{db: db}
}

// List returns tickets matching filters ordered by scheduled time.
func (s *TicketService) List(ctx context.Context, filters models.TicketFilters) ([]*models.Ticket, error) {
	if filters.GuestID != "" && !validID(filters.GuestID) {
		return nil, NewValidationError("guest_id", "must be a UUID")
	}
	sel, t := ticketSelector()
	if filters.Status != "" && filters.Status != "all" {
		sel.Where(sql.EQ(t.C("status"), filters.Status))
	}
	if filters.Type != "" {
		sel.Where(sql.EQ(t.C("type"), filters.Type))
	}
	if filters.GuestID != "" {
		sel.Where(sql.EQ(t.C("guest_id"), filters.GuestID))
	}
	if filters.From != nil {
		sel.Where(sql.GTE(t.C("scheduled_time"), *filters.From))
	}
	if filters.To != nil {
		sel.Where(sql.LTE(t.C("scheduled_time"), *filters.To))
	}
	sel.OrderBy(t.C("scheduled_time"), t.C("created_at"))

	tickets, err := queryTickets(ctx, s.db, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// ListForWindow returns tickets scheduled within [from, to].
func (s *TicketService) ListForWindow(ctx context.Context, from, to time.Time, status string) ([]*models.Ticket, error) {
	return s.List(ctx, models.TicketFilters{Status: status, From: &from, To: &to})
}

// Get returns a ticket with its guest and notes.
func (s *TicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	sel, t := ticketSelector()
	sel.Where(sql.EQ(t.C("id"), id))
	query, args := sel.Query()

	ticket, err := scanTicket(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	notes, err := s.listNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Notes = notes
	return ticket, nil
}

// Create inserts a new open ticket.
func (s *TicketService) Create(ctx context.Context, req models.CreateTicketRequest) (*models.Ticket, error) {
	if strings.TrimSpace(req.Summary) == "" {
		return nil, NewValidationError("summary", "required")
	}
	if req.GuestID != nil && !validID(*req.GuestID) {
		return nil, NewValidationError("guest_id", "must be a UUID")
	}
	if req.AssignedTo != nil && !validID(*req.AssignedTo) {
		return nil, NewValidationError("assigned_to", "must be a UUID")
	}

	ticketType := req.Type
	if ticketType == "" {
		ticketType = models.DefaultTicketType
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	now := time.Now()
	scheduled := now
	if req.ScheduledTime != nil {
		scheduled = *req.ScheduledTime
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (id, type, guest_id, guest_name, room_number, summary, department,
			scheduled_time, status, priority, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		id, ticketType, req.GuestID, req.GuestName, req.RoomNumber, req.Summary, req.Department,
		scheduled, string(models.TicketStatusOpen), priority, req.AssignedTo, now)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, NewValidationError("guest_id", "references an unknown guest or staff member")
		}
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return s.Get(ctx, id)
}

// Update applies a partial update. Status is not touched here; status
// changes go through the lifecycle controller.
func (s *TicketService) Update(ctx context.Context, id string, req models.UpdateTicketRequest) (*models.Ticket, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	if req.Summary != nil && strings.TrimSpace(*req.Summary) == "" {
		return nil, NewValidationError("summary", "must not be empty")
	}
	if req.AssignedTo != nil && *req.AssignedTo != "" && !validID(*req.AssignedTo) {
		return nil, NewValidationError("assigned_to", "must be a UUID")
	}

	u := postgres().Update("tickets")
	if req.Type != nil {
		u.Set("type", *req.Type)
	}
	if req.GuestName != nil {
		u.Set("guest_name", *req.GuestName)
	}
	if req.RoomNumber != nil {
		u.Set("room_number", *req.RoomNumber)
	}
	if req.Summary != nil {
		u.Set("summary", *req.Summary)
	}
	if req.Department != nil {
		u.Set("department", *req.Department)
	}
	if req.ScheduledTime != nil {
		u.Set("scheduled_time", *req.ScheduledTime)
	}
	if req.Priority != nil {
		u.Set("priority", *req.Priority)
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			u.SetNull("assigned_to")
		} else {
			u.Set("assigned_to", *req.AssignedTo)
		}
	}
	u.Set("updated_at", time.Now())
	u.Where(sql.EQ("id", id))

	if err := execUpdate(ctx, s.db, u); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return s.Get(ctx, id)
}

// UpdateStatus stores a new status. Confirming stamps confirmed_at; closing
// stamps closed_at and closed_by, any other status clears them.
func (s *TicketService) UpdateStatus(ctx context.Context, id string, status models.TicketStatus, closedBy string) (*models.Ticket, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET
			status = $2::text,
			updated_at = now(),
			confirmed_at = CASE WHEN $2::text = 'confirmed' THEN now() ELSE confirmed_at END,
			closed_at = CASE WHEN $2::text = 'closed' THEN now() ELSE NULL END,
			closed_by = CASE WHEN $2::text = 'closed' THEN $3::text ELSE NULL END
		WHERE id = $1`,
		id, string(status), closedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Close marks the ticket closed by staff.
func (s *TicketService) Close(ctx context.Context, id string) (*models.Ticket, error) {
	return s.UpdateStatus(ctx, id, models.TicketStatusClosed, models.ClosedByStaff)
}

// CloseIfConfirmed closes the ticket only while it is still confirmed and
// reports whether it did.
func (s *TicketService) CloseIfConfirmed(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET status = 'closed', closed_at = now(), closed_by = $2, updated_at = now()
		WHERE id = $1 AND status = 'confirmed'`,
		id, models.ClosedByAuto)
	if err != nil {
		return false, fmt.Errorf("failed to auto-close ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// ListConfirmedIDs returns the ids of every ticket currently confirmed.
func (s *TicketService) ListConfirmedIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tickets WHERE status = 'confirmed'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed tickets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ticket id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddNote attaches a note to a ticket.
func (s *TicketService) AddNote(ctx context.Context, ticketID, text string, staffID *string) (*models.TicketNote, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewValidationError("note", "required")
	}
	if !validID(ticketID) {
		return nil, ErrNotFound
	}
	if staffID != nil && !validID(*staffID) {
		return nil, NewValidationError("staff_id", "must be a UUID")
	}

	note := &models.TicketNote{
		ID:        uuid.New().String(),
		TicketID:  ticketID,
		Note:      text,
		CreatedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ticket_notes (id, ticket_id, note, staff_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		note.ID, note.TicketID, note.Note, staffID, note.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	if staffID != nil {
		note.Staff = &models.StaffRef{ID: *staffID}
	}
	return note, nil
}

func (s *TicketService) listNotes(ctx context.Context, ticketID string) ([]*models.TicketNote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.ticket_id, n.note, n.created_at, st.id, st.name
		FROM ticket_notes n
		LEFT JOIN staff st ON st.id = n.staff_id
		WHERE n.ticket_id = $1
		ORDER BY n.created_at`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket notes: %w", err)
	}
	defer rows.Close()

	notes := []*models.TicketNote{}
	for rows.Next() {
		var n models.TicketNote
		var staffID, staffName *string
		if err := rows.Scan(&n.ID, &n.TicketID, &n.Note, &n.CreatedAt, &staffID, &staffName); err != nil {
			return nil, fmt.Errorf("failed to scan ticket note: %w", err)
		}
		if staffID != nil {
			n.Staff = &models.StaffRef{ID: *staffID}
			if staffName != nil {
				n.Staff.Name = *staffName
			}
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// ticketSelector selects tickets left-joined to their guest.
func ticketSelector() (*sql.Selector, *sql.SelectTable) {
	b := postgres()
	t := b.Table("tickets").As("t")
	g := b.Table("guests").As("g")
	cols := columns(t, ticketColumns)
	cols = append(cols, g.C("id"), g.C("name"), g.C("room_number"), g.C("contact_email"))
	sel := b.Select(cols...).From(t).LeftJoin(g).On(t.C("guest_id"), g.C("id"))
	return sel, t
}

func queryTickets(ctx context.Context, db *stdsql.DB, sel *sql.Selector) ([]*models.Ticket, error) {
	query, args := sel.Query()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []*models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	var t models.Ticket
	var gID, gName, gRoom, gEmail *string
	err := row.Scan(
		&t.ID, &t.Type, &t.GuestID, &t.GuestName, &t.RoomNumber, &t.Summary, &t.Department,
		&t.ScheduledTime, &t.Status, &t.Priority, &t.AssignedTo, &t.ConfirmedAt, &t.ClosedAt,
		&t.ClosedBy, &t.CreatedAt, &t.UpdatedAt,
		&gID, &gName, &gRoom, &gEmail,
	)
	if err != nil {
		return nil, err
	}
	if gID != nil {
		t.Guest = &models.GuestRef{ID: *gID, ContactEmail: gEmail}
		if gName != nil {
			t.Guest.Name = *gName
		}
		if gRoom != nil {
			t.Guest.RoomNumber = *gRoom
		}
	}
	return &t, nil
}
