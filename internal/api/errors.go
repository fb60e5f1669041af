package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lodging-availability-backend/internal/availability"
)

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, availability.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, availability.ErrInvalidDateRange),
		errors.Is(err, availability.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, availability.ErrInsufficientCapacity),
		errors.Is(err, availability.ErrInvalidTransition),
		errors.Is(err, availability.ErrConcurrencyConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the error body. Internal errors are logged and
// their details withheld from the client.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
