package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Warning categories shown in the dashboard status bar.
const (
	WarningCategoryRefresh   = "refresh"    // A transport refresh job failed
	WarningCategoryMessaging = "messaging"  // A provider runs in demo mode or rejected a send
	WarningCategoryAutoClose = "auto_close" // The timer could not close a ticket
)

// SystemWarning represents a non-fatal system issue.
type SystemWarning struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Source    string    `json:"source,omitempty"` // Job, provider or ticket the warning is about
	CreatedAt time.Time `json:"created_at"`
}

// SystemWarningsService keeps the current set of warnings in memory.
// Thread-safe. Warnings reset on restart.
type SystemWarningsService struct {
	mu       sync.RWMutex
	warnings map[string]*SystemWarning // category/source → warning
}

// NewSystemWarningsService creates a new SystemWarningsService.
func NewSystemWarningsService() *SystemWarningsService {
	return &SystemWarningsService{
		warnings: make(map[string]*SystemWarning),
	}
}

func warningKey(category, source string) string {
	return category + "/" + source
}

// Add records a warning for category+source, replacing any previous one,
// and returns its ID. A nil service records nothing.
func (s *SystemWarningsService) Add(category, source, message, details string) string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &SystemWarning{
		ID:        uuid.New().String(),
		Category:  category,
		Message:   message,
		Details:   details,
		Source:    source,
		CreatedAt: time.Now(),
	}
	s.warnings[warningKey(category, source)] = w
	return w.ID
}

// List returns value copies of all warnings, oldest first.
func (s *SystemWarningsService) List() []*SystemWarning {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*SystemWarning, 0, len(s.warnings))
	for _, w := range s.warnings {
		cp := *w
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

// Clear removes the warning for category+source once the condition recovers.
// Returns true if a warning was removed.
func (s *SystemWarningsService) Clear(category, source string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := warningKey(category, source)
	if _, ok := s.warnings[key]; !ok {
		return false
	}
	delete(s.warnings, key)
	return true
}
