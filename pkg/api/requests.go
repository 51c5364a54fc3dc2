package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/auth"
	"github.com/thefitz/companion/pkg/timeline"
)

// bindJSON decodes the request body into v.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return nil
}

// requireParam returns a non-empty path parameter.
func requireParam(c *gin.Context, name string) (string, error) {
	v := c.Param(name)
	if v == "" {
		return "", NewHTTPError(http.StatusBadRequest, name+" is required")
	}
	return v, nil
}

// dayQuery parses the "date" query parameter as a local day, defaulting to
// today.
func (s *Server) dayQuery(c *gin.Context, loc *time.Location) (time.Time, error) {
	day, err := timeline.ParseDate(c.Query("date"), loc, s.now())
	if err != nil {
		return time.Time{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return day, nil
}

// staffID returns the authenticated staff id, if any.
func staffID(c *gin.Context) *string {
	claims, ok := auth.CurrentUser(c)
	if !ok || claims.ID == "" {
		return nil
	}
	id := claims.ID
	return &id
}
