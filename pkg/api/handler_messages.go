package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/models"
)

// sendMessageHandler handles POST /api/messages/send. A provider failure is
// logged with the message and reported in the body, not as an HTTP error.
func (s *Server) sendMessageHandler(c *gin.Context) error {
	var req models.SendMessageRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	result, err := s.messages.Send(c.Request.Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusCreated, result)
	return nil
}

// messageHistoryHandler handles GET /api/messages/guest/:guestId.
func (s *Server) messageHistoryHandler(c *gin.Context) error {
	guestID, err := requireParam(c, "guestId")
	if err != nil {
		return err
	}

	messages, err := s.messages.History(c.Request.Context(), guestID)
	if err != nil {
		return mapServiceError(err)
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	c.JSON(http.StatusOK, messages)
	return nil
}
