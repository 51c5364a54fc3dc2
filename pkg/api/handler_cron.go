package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// cronFlightsHandler handles GET /api/cron/flights.
func (s *Server) cronFlightsHandler(c *gin.Context) error {
	res, err := s.refresher.RefreshFlights(c.Request.Context())
	if err != nil {
		s.logger.Error("Flight refresh failed", "error", err)
		return NewHTTPError(http.StatusInternalServerError, "Failed to update flight data")
	}

	if res.Tracked == 0 {
		updated := 0
		c.JSON(http.StatusOK, &CronFlightsResponse{Message: "No flights to track", Updated: &updated})
		return nil
	}
	c.JSON(http.StatusOK, &CronFlightsResponse{
		Message:   "Flight data updated",
		Tracked:   &res.Tracked,
		Timestamp: &res.Timestamp,
	})
	return nil
}

// cronTrafficHandler handles GET /api/cron/traffic.
func (s *Server) cronTrafficHandler(c *gin.Context) error {
	res, err := s.refresher.RefreshTraffic(c.Request.Context())
	if err != nil {
		s.logger.Error("Traffic refresh failed", "error", err)
		return NewHTTPError(http.StatusInternalServerError, "Failed to update traffic data")
	}

	c.JSON(http.StatusOK, &CronTrafficResponse{
		Message:        "Traffic data updated",
		TravelTimeMins: res.TravelTimeMins,
		TrafficStatus:  res.TrafficStatus,
		Timestamp:      res.Timestamp,
	})
	return nil
}

// cronTransportHandler handles GET /api/cron/transport: road traffic, then
// the rail summary.
func (s *Server) cronTransportHandler(c *gin.Context) error {
	ctx := c.Request.Context()
	if _, err := s.refresher.RefreshTraffic(ctx); err != nil {
		s.logger.Error("Traffic refresh failed", "error", err)
		return NewHTTPError(http.StatusInternalServerError, "Failed to update transport data")
	}
	rail, err := s.refresher.RefreshRail(ctx)
	if err != nil {
		s.logger.Error("Rail refresh failed", "error", err)
		return NewHTTPError(http.StatusInternalServerError, "Failed to update transport data")
	}

	c.JSON(http.StatusOK, &CronTransportResponse{
		Message:     "Transport data updated",
		RailSummary: rail.Summary,
		Timestamp:   rail.Timestamp,
	})
	return nil
}
