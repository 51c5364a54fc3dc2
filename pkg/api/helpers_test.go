package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thefitz/companion/pkg/auth"
	"github.com/thefitz/companion/pkg/autoclose"
	"github.com/thefitz/companion/pkg/config"
	"github.com/thefitz/companion/pkg/database"
	"github.com/thefitz/companion/pkg/events"
	"github.com/thefitz/companion/pkg/lifecycle"
	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/services"
	"github.com/thefitz/companion/pkg/timeline"
	"github.com/thefitz/companion/pkg/transport"
)

const testCronSecretEnv = "COMPANION_TEST_CRON_SECRET"

type fakeDB struct{ err error }

func (f *fakeDB) Health(context.Context) (*database.HealthStatus, error) {
	if f.err != nil {
		return &database.HealthStatus{Status: "unhealthy"}, f.err
	}
	return &database.HealthStatus{Status: "healthy", MaxOpenConns: 10}, nil
}

type fakeTickets struct {
	filters models.TicketFilters
	tickets []*models.Ticket
}

func (f *fakeTickets) List(_ context.Context, filters models.TicketFilters) ([]*models.Ticket, error) {
	f.filters = filters
	return f.tickets, nil
}

// fakeLifecycle records calls and answers with err when set.
type fakeLifecycle struct {
	err     error
	view    *lifecycle.DetailView
	status  models.TicketStatus
	closed  []string
	note    string
	staffID *string
}

func (f *fakeLifecycle) Create(_ context.Context, req models.CreateTicketRequest) (*models.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Ticket{ID: "t-new", Summary: req.Summary, Status: models.TicketStatusOpen}, nil
}

func (f *fakeLifecycle) Update(_ context.Context, id string, req models.UpdateTicketRequest) (*models.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	t := &models.Ticket{ID: id, Status: models.TicketStatusOpen}
	if req.Summary != nil {
		t.Summary = *req.Summary
	}
	return t, nil
}

func (f *fakeLifecycle) SetStatus(_ context.Context, id string, status models.TicketStatus) (*models.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.status = status
	return &models.Ticket{ID: id, Status: status}, nil
}

func (f *fakeLifecycle) Close(_ context.Context, id string) (*models.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.closed = append(f.closed, id)
	return &models.Ticket{ID: id, Status: models.TicketStatusClosed}, nil
}

func (f *fakeLifecycle) OpenDetail(_ context.Context, id string) (*lifecycle.DetailView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.view, nil
}

func (f *fakeLifecycle) AddNote(_ context.Context, id, text string, staffID *string) (*models.TicketNote, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.note, f.staffID = text, staffID
	return &models.TicketNote{ID: "n1", TicketID: id, Note: text}, nil
}

type fakeTimers struct{}

func (fakeTimers) State(id string) autoclose.State {
	return autoclose.State{TicketID: id, Armed: true, RemainingSeconds: 239, Display: "3:59"}
}

type fakeGuests struct {
	guests map[string]*models.Guest
}

func (f *fakeGuests) List(_ context.Context, filters models.GuestFilters) ([]*models.Guest, error) {
	var out []*models.Guest
	for _, g := range f.guests {
		if filters.Room == "" || g.RoomNumber == filters.Room {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGuests) GetDetail(_ context.Context, id string) (*models.GuestDetail, error) {
	g, ok := f.guests[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &models.GuestDetail{Guest: g, Tickets: []*models.Ticket{}, Messages: []*models.Message{}}, nil
}

func (f *fakeGuests) Create(_ context.Context, req models.CreateGuestRequest) (*models.Guest, error) {
	if req.Name == "" || req.RoomNumber == "" {
		return nil, services.NewValidationError("name", "required")
	}
	g := &models.Guest{ID: "g-new", Name: req.Name, RoomNumber: req.RoomNumber}
	f.guests[g.ID] = g
	return g, nil
}

func (f *fakeGuests) Update(_ context.Context, id string, req models.UpdateGuestRequest) (*models.Guest, error) {
	g, ok := f.guests[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	if req.RoomNumber != nil {
		g.RoomNumber = *req.RoomNumber
	}
	return g, nil
}

func (f *fakeGuests) Delete(_ context.Context, id string) error {
	if _, ok := f.guests[id]; !ok {
		return services.ErrNotFound
	}
	delete(f.guests, id)
	return nil
}

type fakeTimeline struct {
	date   time.Time
	status string
}

func (f *fakeTimeline) Aggregate(_ context.Context, date time.Time, status string) (*timeline.Result, error) {
	f.date, f.status = date, status
	return timeline.Build(nil, nil, timeline.Options{Date: date, Location: time.UTC}), nil
}

func (f *fakeTimeline) Location() *time.Location { return time.UTC }

type fakeNotes struct {
	from, to time.Time
	created  models.InternalNoteRequest
}

func (f *fakeNotes) ListForDay(_ context.Context, from, to time.Time) ([]*models.InternalNote, error) {
	f.from, f.to = from, to
	return nil, nil
}

func (f *fakeNotes) Create(_ context.Context, req models.InternalNoteRequest) (*models.InternalNote, error) {
	if req.Content == "" {
		return nil, services.NewValidationError("content", "required")
	}
	f.created = req
	return &models.InternalNote{ID: "in1", Content: req.Content, Priority: "normal"}, nil
}

func (f *fakeNotes) Update(_ context.Context, id string, req models.InternalNoteRequest) (*models.InternalNote, error) {
	return &models.InternalNote{ID: id, Content: req.Content}, nil
}

type fakeMessenger struct{}

func (fakeMessenger) Send(_ context.Context, req models.SendMessageRequest) (*models.SendMessageResult, error) {
	if req.Channel == models.ChannelEmail && req.GuestID == "no-email" {
		return nil, services.NewValidationError("contact_email", "Guest has no email address")
	}
	return &models.SendMessageResult{
		Success: true,
		Message: &models.Message{ID: "m1", GuestID: req.GuestID, Channel: req.Channel, Status: models.MessageStatusSent},
	}, nil
}

func (fakeMessenger) History(context.Context, string) ([]*models.Message, error) {
	return nil, nil
}

type fakeTransport struct{}

func (fakeTransport) Flights(context.Context) ([]*models.FlightStatus, error) { return nil, nil }

func (fakeTransport) Traffic(context.Context) (*models.TransportStatus, error) {
	return &models.TransportStatus{RouteKey: "dublin_airport_to_hotel", TransportType: models.TransportRoad, TrafficStatus: models.TrafficUnknown}, nil
}

func (fakeTransport) Rail(context.Context) ([]*models.TransportStatus, error) { return nil, nil }
func (fakeTransport) Bus(context.Context) ([]*models.TransportStatus, error)  { return nil, nil }

func (fakeTransport) ETA(_ context.Context, guestID string) (*models.GuestETA, error) {
	if guestID == "missing" {
		return nil, services.ErrNotFound
	}
	return &models.GuestETA{GuestID: guestID, GuestName: "Siobhan"}, nil
}

type fakeRefresher struct {
	tracked int
	err     error
}

var refreshedAt = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func (f *fakeRefresher) RefreshFlights(context.Context) (*transport.FlightsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &transport.FlightsResult{Tracked: f.tracked, Timestamp: refreshedAt}, nil
}

func (f *fakeRefresher) RefreshTraffic(context.Context) (*transport.TrafficResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	mins := 34
	return &transport.TrafficResult{TravelTimeMins: &mins, TrafficStatus: models.TrafficModerate, Timestamp: refreshedAt}, nil
}

func (f *fakeRefresher) RefreshRail(context.Context) (*transport.RailResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &transport.RailResult{Summary: "12 trains running, all on time", Status: models.TrafficLight, Timestamp: refreshedAt}, nil
}

type fakeStorage struct{}

func (fakeStorage) List(_ context.Context, filters models.StorageFilters) ([]*models.StorageItem, error) {
	if filters.Status == "bogus" {
		return nil, services.NewValidationError("status", `unknown status "bogus"`)
	}
	return []*models.StorageItem{{ID: "s1", ItemName: "Suitcase", Status: models.StorageInHouse}}, nil
}

func (fakeStorage) Create(_ context.Context, req models.CreateStorageItemRequest) (*models.StorageItem, error) {
	return &models.StorageItem{ID: "s-new", ItemName: req.ItemName, Status: models.StorageCheckIn}, nil
}

func (fakeStorage) Update(_ context.Context, id string, req models.UpdateStorageItemRequest) (*models.StorageItem, error) {
	return &models.StorageItem{ID: id, Status: *req.Status}, nil
}

func (fakeStorage) Counts(context.Context) (*models.StorageCounts, error) {
	return &models.StorageCounts{Total: 3, CheckIn: 1, InHouse: 2}, nil
}

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "fitz2024" {
		return nil, auth.ErrInvalidCredentials
	}
	return &models.LoginResponse{Token: "tok", User: models.StaffProfile{ID: "s1"}}, nil
}

func (fakeAuth) Me(_ context.Context, claims *auth.Claims) (*models.StaffProfile, error) {
	return &models.StaffProfile{ID: claims.ID, Name: "Aoife", Role: claims.Role}, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c events.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

func (p *recordingPublisher) last() events.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.changes) == 0 {
		return events.Change{}
	}
	return p.changes[len(p.changes)-1]
}

// testEnv is a server over fakes plus a valid staff token.
type testEnv struct {
	server    *Server
	token     string
	tickets   *fakeTickets
	lifecycle *fakeLifecycle
	guests    *fakeGuests
	timeline  *fakeTimeline
	notes     *fakeNotes
	refresher *fakeRefresher
	db        *fakeDB
	broker    *events.Broker
	publisher *recordingPublisher
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"http://localhost:5173"},
		Location:       time.UTC,
		Auth:           &config.AuthConfig{JWTSecretEnv: "COMPANION_TEST_JWT", CronSecretEnv: testCronSecretEnv, TokenTTL: time.Hour},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(testCronSecretEnv, "")

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	token, err := tokens.Issue(&models.Staff{ID: "11111111-1111-1111-1111-111111111111", Email: "aoife@thefitz.hotel", Role: "manager"})
	require.NoError(t, err)

	env := &testEnv{
		token:     token,
		tickets:   &fakeTickets{},
		lifecycle: &fakeLifecycle{},
		guests:    &fakeGuests{guests: map[string]*models.Guest{"g1": {ID: "g1", Name: "Siobhan", RoomNumber: "204"}}},
		timeline:  &fakeTimeline{},
		notes:     &fakeNotes{},
		refresher: &fakeRefresher{tracked: 2},
		db:        &fakeDB{},
		broker:    events.NewBroker(),
		publisher: &recordingPublisher{},
	}
	env.server = NewServer(testConfig(), Dependencies{
		DB:        env.db,
		Tickets:   env.tickets,
		Lifecycle: env.lifecycle,
		Timers:    fakeTimers{},
		Guests:    env.guests,
		Timeline:  env.timeline,
		Notes:     env.notes,
		Messages:  fakeMessenger{},
		Transport: fakeTransport{},
		Refresher: env.refresher,
		Storage:   fakeStorage{},
		Auth:      fakeAuth{},
		Tokens:    tokens,
		Broker:    env.broker,
		Publisher: env.publisher,
		Warnings:  services.NewSystemWarningsService(),
	})
	env.server.now = func() time.Time { return time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC) }
	return env
}

// do sends an authenticated request and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWithToken(t, method, path, body, e.token)
}

func (e *testEnv) doWithToken(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
