package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"github.com/ArowuTest/prizedrop-backend/internal/services"
	"github.com/ArowuTest/prizedrop-backend/pkg/assets"
	"github.com/ArowuTest/prizedrop-backend/pkg/compositor"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, repositories.ErrNoPrizesLeft),
		errors.Is(err, compositor.ErrNoArtifact),
		errors.Is(err, assets.ErrMissing):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, assets.ErrInvalidRef):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Storage failures are not
// echoed to the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

// parseID reads a positive int64 path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return 0, false
	}
	return id, true
}
