package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thefitz/companion/pkg/autoclose"
	"github.com/thefitz/companion/pkg/events"
	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/services"
)

// TicketStore is the persistence the controller drives.
type TicketStore interface {
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Create(ctx context.Context, req models.CreateTicketRequest) (*models.Ticket, error)
	Update(ctx context.Context, id string, req models.UpdateTicketRequest) (*models.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status models.TicketStatus, closedBy string) (*models.Ticket, error)
	CloseIfConfirmed(ctx context.Context, id string) (bool, error)
	AddNote(ctx context.Context, ticketID, text string, staffID *string) (*models.TicketNote, error)
	ListConfirmedIDs(ctx context.Context) ([]string, error)
}

// Timer is the auto-close countdown. Implemented by *autoclose.Manager.
type Timer interface {
	Arm(ctx context.Context, ticketID string) (autoclose.State, error)
	Disarm(ctx context.Context, ticketID string) error
	Hold(ctx context.Context, ticketID string) (release func(), interrupted bool)
	Resume(ctx context.Context, ticketID string) (autoclose.State, bool, error)
	State(ticketID string) autoclose.State
	RestoreArmed(ctx context.Context, ticketIDs []string) int
}

// DetailView is what the ticket detail view shows.
type DetailView struct {
	Ticket    *models.Ticket       `json:"ticket"`
	Notes     []*models.TicketNote `json:"notes"`
	AutoClose autoclose.State      `json:"auto_close"`
}

// Controller applies status changes and keeps the timer in step with them.
type Controller struct {
	tickets   TicketStore
	timer     Timer
	publisher events.Publisher
	logger    *slog.Logger
}

// NewController creates a Controller. publisher may be nil.
func NewController(tickets TicketStore, timer Timer, publisher events.Publisher) *Controller {
	return &Controller{
		tickets:   tickets,
		timer:     timer,
		publisher: publisher,
		logger:    slog.Default().With("component", "lifecycle"),
	}
}

// Bind makes c the closer of m and publishes each auto-close.
func (c *Controller) Bind(m *autoclose.Manager) {
	m.SetCloser(c)
	m.OnClosed(func(ticketID string) {
		c.publish(context.Background(), events.NewChange(events.ResourceTicket, events.ActionAutoClosed, ticketID).
			WithStatus(string(models.TicketStatusClosed)))
	})
}

// Restore re-arms every confirmed ticket. Called once at startup.
func (c *Controller) Restore(ctx context.Context) (int, error) {
	ids, err := c.tickets.ListConfirmedIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list confirmed tickets: %w", err)
	}
	return c.timer.RestoreArmed(ctx, ids), nil
}

// SetStatus moves a ticket to status. Setting the current status is a no-op.
// A failed store call leaves the stored status unchanged and is returned as a
// *services.RemoteError.
func (c *Controller) SetStatus(ctx context.Context, ticketID string, status models.TicketStatus) (*models.Ticket, error) {
	if !IsKnown(status) {
		return nil, services.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	release, interrupted := c.timer.Hold(ctx, ticketID)
	defer release()

	t, err := c.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	current := t.Status
	if interrupted && autoClosed(t) {
		// The close committed after this change was requested.
		c.logger.Info("Overriding auto-close with manual status change", "ticket_id", ticketID, "status", status)
		current = models.TicketStatusConfirmed
	}
	if current == status && t.Status == status {
		return t, nil
	}
	if !CanTransition(current, status) {
		return nil, fmt.Errorf("%w: %s to %s", services.ErrInvalidTransition, current, status)
	}

	closedBy := ""
	if status == models.TicketStatusClosed {
		closedBy = models.ClosedByStaff
	}
	updated, err := c.tickets.UpdateStatus(ctx, ticketID, status, closedBy)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		return nil, services.NewRemoteError("update ticket status", err)
	}

	if status == models.TicketStatusConfirmed {
		if _, err := c.timer.Arm(ctx, ticketID); err != nil {
			c.logger.Warn("Auto-close armed without persistence", "ticket_id", ticketID, "error", err)
		}
	} else if err := c.timer.Disarm(ctx, ticketID); err != nil {
		c.logger.Warn("Failed to disarm auto-close", "ticket_id", ticketID, "error", err)
	}

	c.logger.Info("Ticket status changed", "ticket_id", ticketID, "from", t.Status, "to", status)
	c.publish(ctx, events.NewChange(events.ResourceTicket, events.ActionStatus, ticketID).WithStatus(string(status)))
	return updated, nil
}

// Close is the manual close. Closing a closed ticket is a no-op.
func (c *Controller) Close(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return c.SetStatus(ctx, ticketID, models.TicketStatusClosed)
}

// Create stores a new ticket.
func (c *Controller) Create(ctx context.Context, req models.CreateTicketRequest) (*models.Ticket, error) {
	t, err := c.tickets.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, events.NewChange(events.ResourceTicket, events.ActionCreated, t.ID))
	return t, nil
}

// Update applies a partial update. The fields are written first, then a
// status in req goes through SetStatus. A status rejected up front (unknown,
// or not reachable from the stored status) writes nothing. When SetStatus
// fails after the fields were written, the error is returned and the
// written fields stay.
func (c *Controller) Update(ctx context.Context, ticketID string, req models.UpdateTicketRequest) (*models.Ticket, error) {
	status := req.Status
	req.Status = nil
	if status != nil {
		if err := c.checkTransition(ctx, ticketID, *status); err != nil {
			return nil, err
		}
	}

	t, err := c.tickets.Update(ctx, ticketID, req)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, events.NewChange(events.ResourceTicket, events.ActionUpdated, ticketID))
	if status == nil {
		return t, nil
	}
	return c.SetStatus(ctx, ticketID, *status)
}

// checkTransition reports whether the stored ticket may move to status.
func (c *Controller) checkTransition(ctx context.Context, ticketID string, status models.TicketStatus) error {
	if !IsKnown(status) {
		return services.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	t, err := c.load(ctx, ticketID)
	if err != nil {
		return err
	}
	if t.Status != status && !CanTransition(t.Status, status) {
		return fmt.Errorf("%w: %s to %s", services.ErrInvalidTransition, t.Status, status)
	}
	return nil
}

// OpenDetail loads a ticket for the detail view. A confirmed ticket resumes
// its countdown; one whose countdown ran out while nobody watched is closed
// before the view is returned.
func (c *Controller) OpenDetail(ctx context.Context, ticketID string) (*DetailView, error) {
	t, err := c.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	var st autoclose.State
	if t.Status == models.TicketStatusConfirmed {
		var fired bool
		st, fired, err = c.timer.Resume(ctx, ticketID)
		if err != nil {
			c.logger.Warn("Auto-close resumed without persistence", "ticket_id", ticketID, "error", err)
		}
		if fired {
			if t, err = c.load(ctx, ticketID); err != nil {
				return nil, err
			}
		}
	} else {
		st = c.timer.State(ticketID)
		if st.Armed {
			// Left confirmed outside the controller.
			if err := c.timer.Disarm(ctx, ticketID); err != nil {
				c.logger.Warn("Failed to disarm stale auto-close", "ticket_id", ticketID, "error", err)
			}
			st = autoclose.State{TicketID: ticketID}
		}
	}

	notes := t.Notes
	if notes == nil {
		notes = []*models.TicketNote{}
	}
	return &DetailView{Ticket: t, Notes: notes, AutoClose: st}, nil
}

// AddNote attaches a note to a ticket. Empty text is rejected before the
// store is called.
func (c *Controller) AddNote(ctx context.Context, ticketID, text string, staffID *string) (*models.TicketNote, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.NewValidationError("note", "required")
	}
	note, err := c.tickets.AddNote(ctx, ticketID, text, staffID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || services.IsValidationError(err) {
			return nil, err
		}
		return nil, services.NewRemoteError("add note", err)
	}
	c.publish(ctx, events.NewChange(events.ResourceTicket, events.ActionUpdated, ticketID))
	return note, nil
}

// AutoClose closes the ticket if it is still confirmed. It implements
// autoclose.Closer.
func (c *Controller) AutoClose(ctx context.Context, ticketID string) (bool, error) {
	closed, err := c.tickets.CloseIfConfirmed(ctx, ticketID)
	if err != nil {
		return false, services.NewRemoteError("auto-close ticket", err)
	}
	return closed, nil
}

func (c *Controller) load(ctx context.Context, ticketID string) (*models.Ticket, error) {
	t, err := c.tickets.Get(ctx, ticketID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		return nil, services.NewRemoteError("load ticket", err)
	}
	return t, nil
}

func (c *Controller) publish(ctx context.Context, change events.Change) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, change); err != nil {
		c.logger.Warn("Failed to publish change", "resource", change.Resource, "id", change.ID, "error", err)
	}
}

func autoClosed(t *models.Ticket) bool {
	return t.Status == models.TicketStatusClosed && t.ClosedBy != nil && *t.ClosedBy == models.ClosedByAuto
}
