package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thefitz/companion/pkg/models"
)

func newMockTicketService(t *testing.T) (*TicketService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTicketService(db), mock
}

var ticketRowColumns = append(append([]string{}, ticketColumns...), "g_id", "g_name", "g_room", "g_email")

func TestTicketService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed id is not found without a query", func(t *testing.T) {
		svc, mock := newMockTicketService(t)
		_, err := svc.Get(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		svc, mock := newMockTicketService(t)
		id := uuid.New().String()
		mock.ExpectQuery(`SELECT .+ FROM "tickets" AS "t" LEFT JOIN "guests" AS "g"`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(ticketRowColumns))

		_, err := svc.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("joins guest and notes", func(t *testing.T) {
		svc, mock := newMockTicketService(t)
		id := uuid.New().String()
		guestID := uuid.New().String()
		now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT .+ FROM "tickets" AS "t"`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(ticketRowColumns).AddRow(
				id, "guest_request", guestID, nil, nil, "Late checkout", nil,
				now, "confirmed", "high", nil, now, nil,
				nil, now, now,
				guestID, "Aoife Byrne", "214", "aoife@example.com",
			))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM ticket_notes n`)).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "note", "created_at", "staff_id", "staff_name"}).
				AddRow(uuid.New().String(), id, "Spoke to housekeeping", now, nil, nil))

		ticket, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusConfirmed, ticket.Status)
		require.NotNil(t, ticket.Guest)
		assert.Equal(t, "Aoife Byrne", ticket.DisplayGuestName())
		assert.Equal(t, "214", ticket.DisplayRoomNumber())
		require.Len(t, ticket.Notes, 1)
		assert.Nil(t, ticket.Notes[0].Staff)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTicketService_List_Filters(t *testing.T) {
	svc, mock := newMockTicketService(t)
	from := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Millisecond)

	mock.ExpectQuery(`WHERE .*"t"\."status" = \$1.+"t"\."scheduled_time" >= \$2.+"t"\."scheduled_time" <= \$3.+ORDER BY "t"\."scheduled_time"`).
		WithArgs("open", from, to).
		WillReturnRows(sqlmock.NewRows(ticketRowColumns))

	tickets, err := svc.ListForWindow(context.Background(), from, to, "open")
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.NotNil(t, tickets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketService_List_AllStatusIsUnfiltered(t *testing.T) {
	svc, mock := newMockTicketService(t)
	mock.ExpectQuery(`FROM "tickets" AS "t" LEFT JOIN "guests" AS "g" ON .+ ORDER BY`).
		WillReturnRows(sqlmock.NewRows(ticketRowColumns))

	_, err := svc.List(context.Background(), models.TicketFilters{Status: "all"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketService_Create_Validation(t *testing.T) {
	svc, mock := newMockTicketService(t)
	bad := "guest-7"

	tests := []struct {
		name  string
		req   models.CreateTicketRequest
		field string
	}{
		{name: "missing summary", req: models.CreateTicketRequest{}, field: "summary"},
		{name: "blank summary", req: models.CreateTicketRequest{Summary: "   "}, field: "summary"},
		{name: "malformed guest", req: models.CreateTicketRequest{Summary: "Taxi", GuestID: &bad}, field: "guest_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketService_CloseIfConfirmed(t *testing.T) {
	id := uuid.New().String()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "still confirmed", affected: 1, want: true},
		{name: "status changed meanwhile", affected: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := newMockTicketService(t)
			mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND status = 'confirmed'`)).
				WithArgs(id, models.ClosedByAuto).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			closed, err := svc.CloseIfConfirmed(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, closed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("store failure", func(t *testing.T) {
		svc, mock := newMockTicketService(t)
		mock.ExpectExec(`UPDATE tickets`).WillReturnError(errors.New("connection reset"))

		_, err := svc.CloseIfConfirmed(context.Background(), id)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestTicketService_UpdateStatus_NotFound(t *testing.T) {
	svc, mock := newMockTicketService(t)
	id := uuid.New().String()
	mock.ExpectExec(`UPDATE tickets SET`).
		WithArgs(id, "in_progress", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.UpdateStatus(context.Background(), id, models.TicketStatusInProgress, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketService_ListConfirmedIDs(t *testing.T) {
	svc, mock := newMockTicketService(t)
	a, b := uuid.New().String(), uuid.New().String()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM tickets WHERE status = 'confirmed'`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(a).AddRow(b))

	ids, err := svc.ListConfirmedIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, ids)
}

func TestTicketService_AddNote(t *testing.T) {
	ctx := context.Background()

	t.Run("empty note never reaches the store", func(t *testing.T) {
		svc, mock := newMockTicketService(t)
		_, err := svc.AddNote(ctx, uuid.New().String(), "  ", nil)
		assert.True(t, IsValidationError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inserts note", func(t *testing.T) {
		svc, mock := newMockTicketService(t)
		id := uuid.New().String()
		mock.ExpectExec(`INSERT INTO ticket_notes`).
			WithArgs(sqlmock.AnyArg(), id, "Guest called back", nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		note, err := svc.AddNote(ctx, id, "Guest called back", nil)
		require.NoError(t, err)
		assert.Equal(t, id, note.TicketID)
		assert.NotEmpty(t, note.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
