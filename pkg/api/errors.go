package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thefitz/companion/pkg/auth"
	"github.com/thefitz/companion/pkg/services"
)

// remoteErrorDismissMS is how long the dashboard shows a failed save.
const remoteErrorDismissMS = 3000

// HTTPError is an error with a status code and the JSON body sent for it.
type HTTPError struct {
	Code           int    `json:"-"`
	Message        string `json:"error"`
	Field          string `json:"field,omitempty"`
	DismissAfterMS int    `json:"dismiss_after_ms,omitempty"`
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// handlerFunc is a gin handler that reports failures by returning them.
type handlerFunc func(c *gin.Context) error

// handle adapts h to gin, rendering a returned error as JSON.
func handle(h handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h(c)
		if err == nil {
			return
		}
		var he *HTTPError
		if !errors.As(err, &he) {
			he = mapServiceError(err)
		}
		c.AbortWithStatusJSON(he.Code, he)
	}
}

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(err error) *HTTPError {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		return &HTTPError{Code: http.StatusBadRequest, Message: validErr.Message, Field: validErr.Field}
	}
	if errors.Is(err, services.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if errors.Is(err, services.ErrInvalidTransition) {
		return NewHTTPError(http.StatusConflict, err.Error())
	}
	if errors.Is(err, services.ErrAlreadyExists) {
		return NewHTTPError(http.StatusConflict, "resource already exists")
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if errors.Is(err, auth.ErrInvalidToken) {
		return NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	var remoteErr *services.RemoteError
	if errors.As(err, &remoteErr) {
		slog.Warn("Remote call failed", "op", remoteErr.Op, "error", remoteErr.Err)
		return &HTTPError{
			Code:           http.StatusBadGateway,
			Message:        "Failed to " + remoteErr.Op,
			DismissAfterMS: remoteErrorDismissMS,
		}
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return NewHTTPError(http.StatusInternalServerError, "internal server error")
}
