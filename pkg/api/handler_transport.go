package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/models"
)

// flightsHandler handles GET /api/transport/flights.
func (s *Server) flightsHandler(c *gin.Context) error {
	flights, err := s.transport.Flights(c.Request.Context())
	if err != nil {
		return mapServiceError(err)
	}
	if flights == nil {
		flights = []*models.FlightStatus{}
	}

	c.JSON(http.StatusOK, flights)
	return nil
}

// trafficHandler handles GET /api/transport/traffic. A route never refreshed
// is reported with status unknown.
func (s *Server) trafficHandler(c *gin.Context) error {
	status, err := s.transport.Traffic(c.Request.Context())
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, status)
	return nil
}

// railHandler handles GET /api/transport/rail.
func (s *Server) railHandler(c *gin.Context) error {
	rows, err := s.transport.Rail(c.Request.Context())
	if err != nil {
		return mapServiceError(err)
	}
	c.JSON(http.StatusOK, nonNilRows(rows))
	return nil
}

// busHandler handles GET /api/transport/bus.
func (s *Server) busHandler(c *gin.Context) error {
	rows, err := s.transport.Bus(c.Request.Context())
	if err != nil {
		return mapServiceError(err)
	}
	c.JSON(http.StatusOK, nonNilRows(rows))
	return nil
}

// etaHandler handles GET /api/transport/eta/:guestId.
func (s *Server) etaHandler(c *gin.Context) error {
	guestID, err := requireParam(c, "guestId")
	if err != nil {
		return err
	}

	eta, err := s.transport.ETA(c.Request.Context(), guestID)
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, eta)
	return nil
}

func nonNilRows(rows []*models.TransportStatus) []*models.TransportStatus {
	if rows == nil {
		return []*models.TransportStatus{}
	}
	return rows
}
