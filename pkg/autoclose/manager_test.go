package autoclose

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thefitz/companion/pkg/config"
	"github.com/thefitz/companion/pkg/metrics"
	"github.com/thefitz/companion/pkg/services"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeCloser struct {
	mu        sync.Mutex
	calls     int
	failFirst int  // number of initial calls that fail
	notFound  bool // report the ticket as no longer confirmed
	blocking  bool // wait for cancellation
	started   chan struct{}
}

func (f *fakeCloser) AutoClose(ctx context.Context, _ string) (bool, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.blocking {
		f.started <- struct{}{}
		<-ctx.Done()
		return false, ctx.Err()
	}
	if n <= f.failFirst {
		return false, errors.New("database unavailable")
	}
	return !f.notFound, nil
}

func (f *fakeCloser) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestManager(t *testing.T, store Store) (*Manager, *fakeClock, *fakeCloser) {
	t.Helper()
	cfg := config.DefaultAutoCloseConfig()
	clock := &fakeClock{now: t0}
	closer := &fakeCloser{}
	m := NewManager(cfg, store, clock, metrics.NewAutoCloseMetricsWithRegisterer(prometheus.NewRegistry()))
	m.SetCloser(closer)
	return m, clock, closer
}

func TestManager_ArmPersistsAndReusesStart(t *testing.T) {
	store := NewMemoryStore()
	m, clock, _ := newTestManager(t, store)
	ctx := context.Background()

	st, err := m.Arm(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, st.Armed)
	assert.Equal(t, 300, st.RemainingSeconds)
	assert.Equal(t, "5:00", st.Display)

	raw, ok, err := store.Get(ctx, "autoclose:t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, t0.Format(time.RFC3339Nano), raw)

	clock.Advance(90 * time.Second)
	again, err := m.Arm(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, t0.Equal(*again.StartedAt), "re-arming must not restart the countdown")
	assert.Equal(t, "3:30", again.Display)
	assert.Equal(t, 1, m.Armed())
}

func TestManager_ArmReusesStartAcrossRestart(t *testing.T) {
	store := NewMemoryStore()
	first, _, _ := newTestManager(t, store)
	_, err := first.Arm(context.Background(), "t1")
	require.NoError(t, err)

	second, clock, _ := newTestManager(t, store)
	clock.Advance(2 * time.Minute)
	restored := second.RestoreArmed(context.Background(), []string{"t1"})
	assert.Equal(t, 1, restored)

	st := second.State("t1")
	assert.Equal(t, 180, st.RemainingSeconds)
}

func TestManager_MalformedPersistedStartArmsFresh(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "autoclose:t1", "yesterday"))
	m, _, _ := newTestManager(t, store)

	st, err := m.Arm(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, t0.Equal(*st.StartedAt))
}

func TestManager_RemainingRecomputedFromClock(t *testing.T) {
	m, clock, _ := newTestManager(t, NewMemoryStore())
	_, err := m.Arm(context.Background(), "t1")
	require.NoError(t, err)

	tests := []struct {
		elapsed time.Duration
		secs    int
		display string
	}{
		{0, 300, "5:00"},
		{500 * time.Millisecond, 300, "5:00"},
		{61 * time.Second, 239, "3:59"},
		{4*time.Minute + 59*time.Second, 1, "0:01"},
		{5 * time.Minute, 0, "0:00"},
		{7 * time.Minute, 0, "0:00"},
	}
	for _, tt := range tests {
		clock.mu.Lock()
		clock.now = t0.Add(tt.elapsed)
		clock.mu.Unlock()

		st := m.State("t1")
		assert.Equal(t, tt.secs, st.RemainingSeconds, "elapsed %s", tt.elapsed)
		assert.Equal(t, tt.display, st.Display, "elapsed %s", tt.elapsed)
	}
}

func TestManager_FiresExactlyOnce(t *testing.T) {
	store := NewMemoryStore()
	m, clock, closer := newTestManager(t, store)
	ctx := context.Background()

	var notified []string
	m.OnClosed(func(id string) { notified = append(notified, id) })

	_, err := m.Arm(ctx, "t1")
	require.NoError(t, err)

	clock.Advance(4*time.Minute + 59*time.Second)
	m.tick(ctx)
	assert.Equal(t, 0, closer.Calls())

	clock.Advance(time.Second)
	m.tick(ctx)
	assert.Equal(t, 1, closer.Calls())
	assert.False(t, m.State("t1").Armed)
	assert.Equal(t, []string{"t1"}, notified)

	_, ok, _ := store.Get(ctx, "autoclose:t1")
	assert.False(t, ok, "persisted start must be erased after firing")

	clock.Advance(time.Minute)
	m.tick(ctx)
	assert.Equal(t, 1, closer.Calls())
}

func TestManager_FailedCloseRetriesNextTick(t *testing.T) {
	m, clock, closer := newTestManager(t, NewMemoryStore())
	closer.failFirst = 2
	ctx := context.Background()

	_, err := m.Arm(ctx, "t1")
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)

	m.tick(ctx)
	assert.True(t, m.State("t1").Armed)
	m.tick(ctx)
	assert.True(t, m.State("t1").Armed)
	m.tick(ctx)
	assert.False(t, m.State("t1").Armed)
	m.tick(ctx)

	assert.Equal(t, 3, closer.Calls())
}

func TestManager_FailedCloseRaisesWarning(t *testing.T) {
	m, clock, closer := newTestManager(t, NewMemoryStore())
	warnings := services.NewSystemWarningsService()
	m.SetWarnings(warnings)
	closer.failFirst = 1
	ctx := context.Background()

	_, err := m.Arm(ctx, "t1")
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)

	m.tick(ctx)
	list := warnings.List()
	require.Len(t, list, 1)
	assert.Equal(t, services.WarningCategoryAutoClose, list[0].Category)
	assert.Equal(t, "t1", list[0].Source)
	assert.Equal(t, "database unavailable", list[0].Details)

	m.tick(ctx)
	assert.Empty(t, warnings.List())
	assert.Equal(t, 2, closer.Calls())
}

func TestManager_TicketNoLongerConfirmedDisarms(t *testing.T) {
	m, clock, closer := newTestManager(t, NewMemoryStore())
	closer.notFound = true
	notified := false
	m.OnClosed(func(string) { notified = true })
	ctx := context.Background()

	_, err := m.Arm(ctx, "t1")
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)
	m.tick(ctx)

	assert.False(t, m.State("t1").Armed)
	assert.False(t, notified)
}

func TestManager_DisarmPreventsFiring(t *testing.T) {
	store := NewMemoryStore()
	m, clock, closer := newTestManager(t, store)
	ctx := context.Background()

	_, err := m.Arm(ctx, "t1")
	require.NoError(t, err)
	require.NoError(t, m.Disarm(ctx, "t1"))

	_, ok, _ := store.Get(ctx, "autoclose:t1")
	assert.False(t, ok)

	clock.Advance(10 * time.Minute)
	m.tick(ctx)
	assert.Equal(t, 0, closer.Calls())
	assert.Equal(t, State{TicketID: "t1"}, m.State("t1"))
}

func TestManager_ResumeAfterExpiryClosesImmediately(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "autoclose:t1", t0.Format(time.RFC3339Nano)))

	m, clock, closer := newTestManager(t, store)
	clock.Advance(6 * time.Minute)

	st, fired, err := m.Resume(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, fired)
	assert.False(t, st.Armed)
	assert.Empty(t, st.Display)
	assert.Equal(t, 1, closer.Calls())

	m.tick(ctx)
	assert.Equal(t, 1, closer.Calls())
}

func TestManager_ResumeBeforeExpiryKeepsCountdown(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "autoclose:t1", t0.Format(time.RFC3339Nano)))

	m, clock, closer := newTestManager(t, store)
	clock.Advance(3 * time.Minute)

	st, fired, err := m.Resume(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, "2:00", st.Display)
	assert.Equal(t, 0, closer.Calls())
}

func TestManager_HoldBlocksFiring(t *testing.T) {
	m, clock, closer := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	_, err := m.Arm(ctx, "t1")
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)

	release, interrupted := m.Hold(ctx, "t1")
	assert.False(t, interrupted)
	m.tick(ctx)
	assert.Equal(t, 0, closer.Calls())

	release()
	release()
	m.tick(ctx)
	assert.Equal(t, 1, closer.Calls())
}

func TestManager_CancellationWinsRace(t *testing.T) {
	m, clock, closer := newTestManager(t, NewMemoryStore())
	closer.blocking = true
	closer.started = make(chan struct{}, 1)
	ctx := context.Background()

	_, err := m.Arm(ctx, "t1")
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)

	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		m.tick(ctx)
	}()
	<-closer.started

	release, interrupted := m.Hold(ctx, "t1")
	assert.True(t, interrupted)
	require.NoError(t, m.Disarm(ctx, "t1"))
	release()
	<-tickDone

	assert.False(t, m.State("t1").Armed)
	closer.blocking = false
	clock.Advance(time.Hour)
	m.tick(ctx)
	assert.Equal(t, 1, closer.Calls(), "no close may be issued after cancellation")
}

func TestManager_ConcurrentArmDisarm(t *testing.T) {
	m, _, _ := newTestManager(t, NewMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _, _ = m.Arm(ctx, "t1") }()
		go func() { defer wg.Done(); _ = m.Disarm(ctx, "t1") }()
		go func() { defer wg.Done(); _ = m.State("t1") }()
	}
	wg.Wait()
	assert.LessOrEqual(t, m.Armed(), 1)
}

// gatedStore blocks the first Get until release is closed.
type gatedStore struct {
	*MemoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.MemoryStore.Get(ctx, key)
}

func TestManager_DisarmDuringArmWins(t *testing.T) {
	store := &gatedStore{MemoryStore: NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	m, clock, closer := newTestManager(t, store)
	ctx := context.Background()

	resumed := make(chan State, 1)
	go func() {
		st, _, err := m.Resume(ctx, "t1")
		assert.NoError(t, err)
		resumed <- st
	}()
	<-store.entered
	require.NoError(t, m.Disarm(ctx, "t1"))
	close(store.release)

	st := <-resumed
	assert.False(t, st.Armed)
	assert.False(t, m.State("t1").Armed)
	assert.Equal(t, 0, m.Armed())
	_, persisted, err := store.MemoryStore.Get(ctx, "autoclose:t1")
	require.NoError(t, err)
	assert.False(t, persisted, "a disarmed ticket keeps no start time")

	// Confirming again later starts a full countdown.
	clock.Advance(2 * time.Minute)
	st, err = m.Arm(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 300, st.RemainingSeconds)
	assert.Equal(t, "5:00", st.Display)

	clock.Advance(4 * time.Minute)
	m.tick(ctx)
	assert.Equal(t, 0, closer.Calls())
}

func TestManager_StartStop(t *testing.T) {
	cfg := config.DefaultAutoCloseConfig()
	cfg.TickInterval = 5 * time.Millisecond
	clock := &fakeClock{now: t0}
	closer := &fakeCloser{}
	m := NewManager(cfg, NewMemoryStore(), clock, nil)
	m.SetCloser(closer)

	_, err := m.Arm(context.Background(), "t1")
	require.NoError(t, err)
	clock.Advance(cfg.Duration)

	m.Start(context.Background())
	assert.Eventually(t, func() bool { return closer.Calls() == 1 }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()
	assert.False(t, m.State("t1").Armed)
}

func TestManager_NoCloser(t *testing.T) {
	m := NewManager(config.DefaultAutoCloseConfig(), NewMemoryStore(), &fakeClock{now: t0}, nil)
	ctx := context.Background()
	require.NoError(t, m.store.Set(ctx, "autoclose:t1", t0.Add(-time.Hour).Format(time.RFC3339Nano)))

	_, fired, err := m.Resume(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, fired)
	assert.True(t, m.State("t1").Armed)
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "0:00", FormatRemaining(-4))
	assert.Equal(t, "0:09", FormatRemaining(9))
	assert.Equal(t, "12:30", FormatRemaining(750))
}
