package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/events"
	"github.com/thefitz/companion/pkg/models"
)

// listGuestsHandler handles GET /api/guests.
func (s *Server) listGuestsHandler(c *gin.Context) error {
	guests, err := s.guests.List(c.Request.Context(), models.GuestFilters{
		Search: c.Query("search"),
		Room:   c.Query("room"),
	})
	if err != nil {
		return mapServiceError(err)
	}
	if guests == nil {
		guests = []*models.Guest{}
	}

	c.JSON(http.StatusOK, guests)
	return nil
}

// getGuestHandler handles GET /api/guests/:id.
func (s *Server) getGuestHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}

	detail, err := s.guests.GetDetail(c.Request.Context(), id)
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, detail)
	return nil
}

// createGuestHandler handles POST /api/guests.
func (s *Server) createGuestHandler(c *gin.Context) error {
	var req models.CreateGuestRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	guest, err := s.guests.Create(c.Request.Context(), req)
	if err != nil {
		return mapServiceError(err)
	}
	s.publish(c, events.NewChange(events.ResourceGuest, events.ActionCreated, guest.ID))

	c.JSON(http.StatusCreated, guest)
	return nil
}

// updateGuestHandler handles PUT /api/guests/:id.
func (s *Server) updateGuestHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateGuestRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	guest, err := s.guests.Update(c.Request.Context(), id, req)
	if err != nil {
		return mapServiceError(err)
	}
	s.publish(c, events.NewChange(events.ResourceGuest, events.ActionUpdated, guest.ID))

	c.JSON(http.StatusOK, guest)
	return nil
}

// deleteGuestHandler handles DELETE /api/guests/:id.
func (s *Server) deleteGuestHandler(c *gin.Context) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.guests.Delete(c.Request.Context(), id); err != nil {
		return mapServiceError(err)
	}
	s.publish(c, events.NewChange(events.ResourceGuest, events.ActionDeleted, id))

	c.Status(http.StatusNoContent)
	return nil
}
