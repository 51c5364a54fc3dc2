package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/timeline"
)

// listTicketsHandler handles GET /api/tickets.
func (s *Server) listTicketsHandler(c *gin.Context) error {
	filters := models.TicketFilters{
		Status:  c.Query("status"),
		Type:    c.Query("type"),
		GuestID: c.Query("guest_id"),
	}
	if c.Query("date") != "" {
		day, err := s.dayQuery(c, s.cfg.Location)
		if err != nil {
			return err
		}
		from, to := timeline.DayWindow(day, s.cfg.Location)
		filters.From, filters.To = &from, &to
	}

	tickets, err := s.tickets.List(c.Request.Context(), filters)
	if err != nil {
		return mapServiceError(err)
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}

	c.JSON(http.StatusOK, tickets)
	return nil
}

// createTicketHandler handles POST /api/tickets.
func (s *Server) createTicketHandler(c *gin.Context) error {
	var req models.CreateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ticket, err := s.lifecycle.Create(c.Request.Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusCreated, ticket)
	return nil
}

// getTicketHandler handles GET /api/tickets/:id. Opening a confirmed ticket
// resumes its auto-close countdown, closing it at once when the window has
// already elapsed.
func (s *Server) getTicketHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}

	view, err := s.lifecycle.OpenDetail(c.Request.Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	notes := view.Notes
	if notes == nil {
		notes = []*models.TicketNote{}
	}

	c.JSON(http.StatusOK, &TicketDetailResponse{
		Ticket:    view.Ticket,
		Notes:     notes,
		AutoClose: view.AutoClose,
	})
	return nil
}

// updateTicketHandler handles PUT /api/tickets/:id.
func (s *Server) updateTicketHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ticket, err := s.lifecycle.Update(c.Request.Context(), id, req)
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, ticket)
	return nil
}

// setTicketStatusHandler handles PUT /api/tickets/:id/status.
func (s *Server) setTicketStatusHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req TicketStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return NewHTTPError(http.StatusBadRequest, "status is required")
	}

	ticket, err := s.lifecycle.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, ticket)
	return nil
}

// closeTicketHandler handles PUT /api/tickets/:id/close.
func (s *Server) closeTicketHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}

	ticket, err := s.lifecycle.Close(c.Request.Context(), id)
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, ticket)
	return nil
}

// autoCloseStateHandler handles GET /api/tickets/:id/autoclose. The
// countdown is recomputed from the clock on every call.
func (s *Server) autoCloseStateHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	if s.timers == nil {
		return NewHTTPError(http.StatusServiceUnavailable, "auto-close is not running")
	}

	c.JSON(http.StatusOK, s.timers.State(id))
	return nil
}

// addTicketNoteHandler handles POST /api/tickets/:id/notes.
func (s *Server) addTicketNoteHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req TicketNoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	note, err := s.lifecycle.AddNote(c.Request.Context(), id, req.Note, staffID(c))
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusCreated, note)
	return nil
}
