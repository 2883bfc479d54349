package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"warehouse-reservation-backend/internal/domain"
)

// StatusFor maps an engine error kind to its HTTP status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInsufficientStock, domain.KindResourceBusy, domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindInvalidWindow:
		return http.StatusUnprocessableEntity
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindContended, domain.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{
		"error":     err.Error(),
		"kind":      domain.KindOf(err),
		"retryable": domain.Retryable(err),
	}
	if conflict := domain.ConflictOf(err); conflict != nil {
		body["conflict"] = conflict
	}
	if domain.Retryable(err) {
		c.Header("Retry-After", "1")
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
}
