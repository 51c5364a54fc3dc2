package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/events"
	"github.com/thefitz/companion/pkg/models"
	"github.com/thefitz/companion/pkg/timeline"
)

// timelineHandler handles GET /api/timeline?date=YYYY-MM-DD&status=.
func (s *Server) timelineHandler(c *gin.Context) error {
	day, err := s.dayQuery(c, s.timeline.Location())
	if err != nil {
		return err
	}

	result, err := s.timeline.Aggregate(c.Request.Context(), day, c.Query("status"))
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, result)
	return nil
}

// listInternalNotesHandler handles GET /api/timeline/notes?date=YYYY-MM-DD.
func (s *Server) listInternalNotesHandler(c *gin.Context) error {
	day, err := s.dayQuery(c, s.cfg.Location)
	if err != nil {
		return err
	}
	from, to := timeline.DayWindow(day, s.cfg.Location)

	notes, err := s.notes.ListForDay(c.Request.Context(), from, to)
	if err != nil {
		return mapServiceError(err)
	}
	if notes == nil {
		notes = []*models.InternalNote{}
	}

	c.JSON(http.StatusOK, notes)
	return nil
}

// createInternalNoteHandler handles POST /api/timeline/notes.
func (s *Server) createInternalNoteHandler(c *gin.Context) error {
	var req models.InternalNoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.StaffID == nil {
		req.StaffID = staffID(c)
	}

	note, err := s.notes.Create(c.Request.Context(), req)
	if err != nil {
		return mapServiceError(err)
	}
	s.publish(c, events.NewChange(events.ResourceNote, events.ActionCreated, note.ID))

	c.JSON(http.StatusCreated, note)
	return nil
}

// updateInternalNoteHandler handles PUT /api/timeline/notes/:id.
func (s *Server) updateInternalNoteHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req models.InternalNoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	note, err := s.notes.Update(c.Request.Context(), id, req)
	if err != nil {
		return mapServiceError(err)
	}
	s.publish(c, events.NewChange(events.ResourceNote, events.ActionUpdated, note.ID))

	c.JSON(http.StatusOK, note)
	return nil
}
