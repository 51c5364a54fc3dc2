package models

import "time"

// Staff is a hotel employee who can sign in to the dashboard.
type Staff struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StaffProfile is the public view of a staff member.
type StaffProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Profile returns the public view of s.
func (s *Staff) Profile() StaffProfile {
	return StaffProfile{ID: s.ID, Name: s.Name, Email: s.Email, Role: s.Role}
}

// LoginRequest carries staff credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful sign in.
type LoginResponse struct {
	Token string       `json:"token"`
	User  StaffProfile `json:"user"`
}
