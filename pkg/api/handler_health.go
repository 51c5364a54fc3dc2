package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health and GET /api/health.
// Only the companion's own database is checked; messaging and transport
// providers are reported as warnings so an outage there never restarts the
// service.
func (s *Server) healthHandler(c *gin.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := &HealthResponse{
		Status:    healthStatusHealthy,
		Version:   version.GitCommit,
		Timestamp: s.now().UTC(),
		Warnings:  s.warnings.List(),
	}
	httpStatus := http.StatusOK

	if s.db != nil {
		dbHealth, err := s.db.Health(reqCtx)
		resp.Database = dbHealth
		if err != nil {
			resp.Status = healthStatusUnhealthy
			resp.Error = err.Error()
			httpStatus = http.StatusServiceUnavailable
		}
	}

	c.JSON(httpStatus, resp)
	return nil
}
