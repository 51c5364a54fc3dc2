package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/services"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the email or password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// StaffStore looks up staff accounts.
type StaffStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Staff, error)
	Get(ctx context.Context, id string) (*models.Staff, error)
}

// Service signs staff in.
type Service struct {
	staff  StaffStore
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(staff StaffStore, tokens *TokenIssuer) *Service {
	return &Service{
		staff:  staff,
		tokens: tokens,
		logger: slog.Default().With("component", "auth"),
	}
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, services.NewValidationError("credentials", "Email and password required")
	}

	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}
	if err := CheckPassword(staff.PasswordHash, req.Password); err != nil {
		s.logger.Info("Rejected sign-in", "email", email)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(staff)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Staff signed in", "staff_id", staff.ID, "role", staff.Role)
	return &models.LoginResponse{Token: token, User: staff.Profile()}, nil
}

// Me returns the profile of the token's owner.
func (s *Service) Me(ctx context.Context, claims *Claims) (*models.StaffProfile, error) {
	staff, err := s.staff.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}
	profile := staff.Profile()
	return &profile, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a password.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
