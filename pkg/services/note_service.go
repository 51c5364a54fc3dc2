package services

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thefitz/companion/pkg/models"
)

// NoteService manages internal notes on the operations board.
type NoteService struct {
	db *stdsql.DB
}

// NewNoteService creates a new NoteService
func NewNoteService(db *stdsql.DB) *NoteService {
	return &NoteService{db: db}
}

// ListForDay returns notes created within [from, to], newest first.
func (s *NoteService) ListForDay(ctx context.Context, from, to time.Time) ([]*models.InternalNote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.content, n.priority, n.staff_id, n.created_at, n.updated_at, st.name
		FROM internal_notes n
		LEFT JOIN staff st ON st.id = n.staff_id
		WHERE n.created_at >= $1 AND n.created_at <= $2
		ORDER BY n.created_at DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []*models.InternalNote{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// Create adds a note. Priority defaults to normal.
func (s *NoteService) Create(ctx context.Context, req models.InternalNoteRequest) (*models.InternalNote, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, NewValidationError("content", "required")
	}
	if req.StaffID != nil && !validID(*req.StaffID) {
		return nil, NewValidationError("staff_id", "must be a UUID")
	}

	id := uuid.New().String()
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO internal_notes (id, content, priority, staff_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)`,
		id, req.Content, notePriority(req.Priority), req.StaffID, now)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, NewValidationError("staff_id", "unknown staff member")
		}
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return s.get(ctx, id)
}

// Update replaces the content and priority of a note.
func (s *NoteService) Update(ctx context.Context, id string, req models.InternalNoteRequest) (*models.InternalNote, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, NewValidationError("content", "required")
	}
	if !validID(id) {
		return nil, ErrNotFound
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE internal_notes SET content = $2, priority = $3, updated_at = now() WHERE id = $1`,
		id, req.Content, notePriority(req.Priority))
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.get(ctx, id)
}

func (s *NoteService) get(ctx context.Context, id string) (*models.InternalNote, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT n.id, n.content, n.priority, n.staff_id, n.created_at, n.updated_at, st.name
		FROM internal_notes n
		LEFT JOIN staff st ON st.id = n.staff_id
		WHERE n.id = $1`, id)
	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return note, nil
}

func notePriority(p string) string {
	if p == "" {
		return models.PriorityNormal
	}
	return p
}

func scanNote(row rowScanner) (*models.InternalNote, error) {
	var n models.InternalNote
	var staffName *string
	if err := row.Scan(&n.ID, &n.Content, &n.Priority, &n.StaffID, &n.CreatedAt, &n.UpdatedAt, &staffName); err != nil {
		return nil, err
	}
	if n.StaffID != nil {
		n.Staff = &models.StaffRef{ID: *n.StaffID}
		if staffName != nil {
			n.Staff.Name = *staffName
		}
	}
	return &n, nil
}
