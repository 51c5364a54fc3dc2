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

// StaffService looks up and creates staff accounts.
type StaffService struct {
	db *stdsql.DB
}

// NewStaffService creates a new StaffService
func NewStaffService(db *stdsql.DB) *StaffService {
	return &StaffService{db: db}
}

// GetByEmail returns the staff member with the given email, case-insensitively.
func (s *StaffService) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	return s.getOne(ctx, `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

// Get returns a staff member by id.
func (s *StaffService) Get(ctx context.Context, id string) (*models.Staff, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return s.getOne(ctx, `WHERE id = $1`, id)
}

// Create adds a staff account with an already hashed password.
func (s *StaffService) Create(ctx context.Context, name, email, passwordHash, role string) (*models.Staff, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError("name", "required")
	}
	if strings.TrimSpace(email) == "" {
		return nil, NewValidationError("email", "required")
	}
	if role == "" {
		role = "staff"
	}
	st := &models.Staff{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO staff (id, name, email, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		st.ID, st.Name, st.Email, st.PasswordHash, st.Role, st.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	return st, nil
}

func (s *StaffService) getOne(ctx context.Context, where string, arg any) (*models.Staff, error) {
	var st models.Staff
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, password_hash, created_at FROM staff `+where, arg).
		Scan(&st.ID, &st.Name, &st.Email, &st.Role, &st.PasswordHash, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return &st, nil
}
