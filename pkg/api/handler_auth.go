package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/auth"
	"github.com/thefitz/companion/pkg/models"
)

// loginHandler handles POST /api/auth/login.
func (s *Server) loginHandler(c *gin.Context) error {
	var req models.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	resp, err := s.auth.Login(c.Request.Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, resp)
	return nil
}

// meHandler handles GET /api/auth/me.
func (s *Server) meHandler(c *gin.Context) error {
	claims, ok := auth.CurrentUser(c)
	if !ok {
		return NewHTTPError(http.StatusUnauthorized, "No token provided")
	}

	profile, err := s.auth.Me(c.Request.Context(), claims)
	if err != nil {
		return mapServiceError(err)
	}

	c.JSON(http.StatusOK, profile)
	return nil
}
