// Package autoclose closes confirmed tickets after a fixed wait unless a
// manual status change cancels the countdown first.
//
// The start of each countdown is persisted in a Store keyed by ticket id, so
// the countdown survives restarts and every dashboard sees the same value.
// Remaining time is always recomputed from the Clock.
package autoclose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/thefitz/companion/pkg/config"
	"github.com/thefitz/companion/pkg/metrics"
	"github.com/thefitz/companion/pkg/services"
)

// Closer performs the unattended close. closed is false when the ticket was
// no longer confirmed, which also ends the countdown.
type Closer interface {
	AutoClose(ctx context.Context, ticketID string) (closed bool, err error)
}

// State is the countdown of one ticket.
type State struct {
	TicketID         string     `json:"ticket_id"`
	Armed            bool       `json:"armed"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RemainingSeconds int        `json:"remaining_seconds"`
	Display          string     `json:"display,omitempty"`
}

var errNoCloser = errors.New("auto-close manager has no closer")

type inflight struct {
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time
	done      chan struct{}
}

// Manager owns the armed timers. Safe for concurrent use.
type Manager struct {
	duration time.Duration
	interval time.Duration
	prefix   string
	store    Store
	clock    Clock
	metrics  *metrics.AutoCloseMetrics
	logger   *slog.Logger

	mu       sync.Mutex
	closer   Closer
	onClosed func(ticketID string)
	warnings *services.SystemWarningsService
	armed    map[string]time.Time // ticket id → countdown start
	inflight map[string]*inflight // tickets whose close call is running
	holds    map[string]int       // tickets a manual action is changing
	arming   map[string]int       // Arm calls in progress per ticket
	disarms  map[string]uint64    // Disarm calls seen while arming, per ticket

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a Manager. m may be nil.
func NewManager(cfg *config.AutoCloseConfig, store Store, clock Clock, m *metrics.AutoCloseMetrics) *Manager {
	if clock == nil {
		clock = SystemClock()
	}
	return &Manager{
		duration: cfg.Duration,
		interval: cfg.TickInterval,
		prefix:   cfg.KeyPrefix,
		store:    store,
		clock:    clock,
		metrics:  m,
		logger:   slog.Default().With("component", "autoclose"),
		armed:    make(map[string]time.Time),
		inflight: make(map[string]*inflight),
		holds:    make(map[string]int),
		arming:   make(map[string]int),
		disarms:  make(map[string]uint64),
	}
}

// SetCloser sets the component that closes expired tickets.
func (m *Manager) SetCloser(c Closer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closer = c
}

// SetWarnings sets where failed closes are reported. w may be nil.
func (m *Manager) SetWarnings(w *services.SystemWarningsService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = w
}

// OnClosed registers fn to run after each successful auto-close.
func (m *Manager) OnClosed(fn func(ticketID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClosed = fn
}

// Duration returns the countdown length.
func (m *Manager) Duration() time.Duration {
	return m.duration
}

func (m *Manager) key(ticketID string) string {
	return m.prefix + ticketID
}

// Arm starts the countdown of a ticket. A start time already persisted for
// the ticket is reused; arming an armed ticket changes nothing. A Disarm that
// runs while Arm is reading or writing the store wins: the ticket is left
// unarmed and a start written by this call is erased.
func (m *Manager) Arm(ctx context.Context, ticketID string) (State, error) {
	m.mu.Lock()
	if start, ok := m.armed[ticketID]; ok {
		st := m.stateFor(ticketID, start, m.clock.Now())
		m.mu.Unlock()
		return st, nil
	}
	m.arming[ticketID]++
	gen := m.disarms[ticketID]
	m.mu.Unlock()

	start, storeErr := m.loadStart(ctx, ticketID)
	written := false
	if start.IsZero() {
		start = m.clock.Now()
		if err := m.store.Set(ctx, m.key(ticketID), start.UTC().Format(time.RFC3339Nano)); err != nil {
			storeErr = errors.Join(storeErr, err)
		} else {
			written = true
		}
	}

	m.mu.Lock()
	stale := m.disarms[ticketID] != gen
	if m.arming[ticketID] <= 1 {
		delete(m.arming, ticketID)
		delete(m.disarms, ticketID)
	} else {
		m.arming[ticketID]--
	}
	if stale {
		_, rearmed := m.armed[ticketID]
		m.mu.Unlock()
		if written && !rearmed {
			if err := m.store.Remove(context.WithoutCancel(ctx), m.key(ticketID)); err != nil {
				m.logger.Warn("Failed to erase timer start", "ticket_id", ticketID, "error", err)
			}
		}
		m.logger.Debug("Arm superseded by disarm", "ticket_id", ticketID)
		return m.State(ticketID), nil
	}
	if existing, ok := m.armed[ticketID]; ok {
		start = existing
	} else {
		m.armed[ticketID] = start
	}
	armed := len(m.armed)
	st := m.stateFor(ticketID, start, m.clock.Now())
	m.mu.Unlock()

	m.metrics.SetArmed(armed)
	if storeErr != nil {
		return st, fmt.Errorf("timer armed in memory only: %w", storeErr)
	}
	return st, nil
}

// loadStart returns the persisted start of a ticket, or the zero time.
func (m *Manager) loadStart(ctx context.Context, ticketID string) (time.Time, error) {
	raw, ok, err := m.store.Get(ctx, m.key(ticketID))
	if err != nil || !ok {
		return time.Time{}, err
	}
	start, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		m.logger.Warn("Ignoring malformed persisted start time", "ticket_id", ticketID, "value", raw)
		return time.Time{}, nil
	}
	return start, nil
}

// Disarm stops the countdown of a ticket and erases its persisted start.
// A close call already running for the ticket is cancelled.
func (m *Manager) Disarm(ctx context.Context, ticketID string) error {
	m.mu.Lock()
	delete(m.armed, ticketID)
	if m.arming[ticketID] > 0 {
		m.disarms[ticketID]++
	}
	if f, ok := m.inflight[ticketID]; ok {
		f.cancel()
	}
	armed := len(m.armed)
	warnings := m.warnings
	m.mu.Unlock()

	m.metrics.SetArmed(armed)
	warnings.Clear(services.WarningCategoryAutoClose, ticketID)
	if err := m.store.Remove(ctx, m.key(ticketID)); err != nil {
		return fmt.Errorf("failed to erase timer start: %w", err)
	}
	return nil
}

// Hold keeps the timer from firing for a ticket until release is called.
// A close already running is cancelled and waited for; interrupted reports
// whether that happened, in which case the caller's action takes precedence
// over a close that may have committed.
func (m *Manager) Hold(ctx context.Context, ticketID string) (release func(), interrupted bool) {
	m.mu.Lock()
	m.holds[ticketID]++
	f := m.inflight[ticketID]
	if f != nil {
		f.cancel()
	}
	m.mu.Unlock()

	if f != nil {
		select {
		case <-f.done:
		case <-ctx.Done():
		}
		interrupted = true
		m.metrics.RecordCancelled()
		m.logger.Info("Manual status change interrupted auto-close", "ticket_id", ticketID)
	}

	var once sync.Once
	release = func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.holds[ticketID] <= 1 {
				delete(m.holds, ticketID)
				return
			}
			m.holds[ticketID]--
		})
	}
	return release, interrupted
}

// Resume arms the ticket and, when its countdown already ran out, closes it
// at once. fired reports whether the ticket was closed by this call.
func (m *Manager) Resume(ctx context.Context, ticketID string) (State, bool, error) {
	st, armErr := m.Arm(ctx, ticketID)
	if armErr != nil {
		m.logger.Warn("Auto-close start not persisted", "ticket_id", ticketID, "error", armErr)
	}

	m.mu.Lock()
	f, ok := m.begin(ctx, ticketID, m.clock.Now())
	m.mu.Unlock()
	if !ok {
		return st, false, armErr
	}

	closed, _ := m.fire(ticketID, f)
	return m.State(ticketID), closed, armErr
}

// State returns the countdown of a ticket.
func (m *Manager) State(ticketID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, ok := m.armed[ticketID]
	if !ok {
		return State{TicketID: ticketID}
	}
	return m.stateFor(ticketID, start, m.clock.Now())
}

// Armed returns the number of armed tickets.
func (m *Manager) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.armed)
}

func (m *Manager) stateFor(ticketID string, start, now time.Time) State {
	remaining := m.duration - now.Sub(start)
	secs := int(math.Ceil(remaining.Seconds()))
	if secs < 0 {
		secs = 0
	}
	startedAt := start
	expiresAt := start.Add(m.duration)
	return State{
		TicketID:         ticketID,
		Armed:            true,
		StartedAt:        &startedAt,
		ExpiresAt:        &expiresAt,
		RemainingSeconds: secs,
		Display:          FormatRemaining(secs),
	}
}

// FormatRemaining renders seconds as M:SS.
func FormatRemaining(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// RestoreArmed re-arms tickets that were confirmed before a restart and
// returns how many are armed.
func (m *Manager) RestoreArmed(ctx context.Context, ticketIDs []string) int {
	for _, id := range ticketIDs {
		if _, err := m.Arm(ctx, id); err != nil {
			m.logger.Warn("Restored timer not persisted", "ticket_id", id, "error", err)
		}
	}
	return m.Armed()
}

// begin claims an expired, idle, unheld timer for firing. Caller holds m.mu.
func (m *Manager) begin(parent context.Context, ticketID string, now time.Time) (*inflight, bool) {
	start, ok := m.armed[ticketID]
	if !ok || m.inflight[ticketID] != nil || m.holds[ticketID] > 0 {
		return nil, false
	}
	if now.Sub(start) < m.duration {
		return nil, false
	}
	ctx, cancel := context.WithCancel(parent)
	f := &inflight{ctx: ctx, cancel: cancel, startedAt: start, done: make(chan struct{})}
	m.inflight[ticketID] = f
	return f, true
}

// fire runs the close for a claimed timer. A failed close leaves the timer
// armed for the next tick; any other outcome spends this arming.
func (m *Manager) fire(ticketID string, f *inflight) (bool, error) {
	defer func() {
		m.mu.Lock()
		if m.inflight[ticketID] == f {
			delete(m.inflight, ticketID)
		}
		m.mu.Unlock()
		f.cancel()
		close(f.done)
	}()

	m.mu.Lock()
	closer, notify, warnings := m.closer, m.onClosed, m.warnings
	m.mu.Unlock()
	if closer == nil {
		m.logger.Error("Auto-close fired without a closer", "ticket_id", ticketID)
		return false, errNoCloser
	}

	closed, err := closer.AutoClose(f.ctx, ticketID)
	if err != nil {
		if f.ctx.Err() != nil {
			m.logger.Debug("Auto-close cancelled", "ticket_id", ticketID)
			return false, err
		}
		m.metrics.RecordFailed()
		m.logger.Warn("Auto-close failed, retrying on next tick", "ticket_id", ticketID, "error", err)
		warnings.Add(services.WarningCategoryAutoClose, ticketID, "Ticket could not be auto-closed", err.Error())
		return false, err
	}
	warnings.Clear(services.WarningCategoryAutoClose, ticketID)

	m.mu.Lock()
	start, ok := m.armed[ticketID]
	spent := ok && start.Equal(f.startedAt)
	if spent {
		delete(m.armed, ticketID)
	}
	armed := len(m.armed)
	m.mu.Unlock()

	if spent {
		if err := m.store.Remove(context.WithoutCancel(f.ctx), m.key(ticketID)); err != nil {
			m.logger.Warn("Failed to erase timer start", "ticket_id", ticketID, "error", err)
		}
	}
	m.metrics.SetArmed(armed)

	if !closed {
		m.logger.Debug("Ticket left confirmed before auto-close", "ticket_id", ticketID)
		return false, nil
	}
	m.metrics.RecordFired()
	m.logger.Info("Ticket auto-closed", "ticket_id", ticketID, "after", m.duration)
	if notify != nil {
		notify(ticketID)
	}
	return true, nil
}

// Start launches the once-per-interval tick loop.
func (m *Manager) Start(ctx context.Context) {
	if m.cancel != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go m.run(ctx)

	m.logger.Info("Auto-close manager started", "duration", m.duration, "tick", m.interval, "armed", m.Armed())
}

// Stop ends the tick loop and waits for it to finish. Armed timers stay
// persisted.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.logger.Info("Auto-close manager stopped")
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick fires every expired timer.
func (m *Manager) tick(ctx context.Context) {
	now := m.clock.Now()

	type claimed struct {
		id string
		f  *inflight
	}
	var due []claimed
	m.mu.Lock()
	for id := range m.armed {
		if f, ok := m.begin(ctx, id, now); ok {
			due = append(due, claimed{id: id, f: f})
		}
	}
	m.mu.Unlock()

	for _, c := range due {
		_, _ = m.fire(c.id, c.f)
	}
}
