package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warehouse-reservation-backend/internal/domain"
)

type adjustRequest struct {
	StorageID string `json:"storageId" binding:"required"`
	ItemID    string `json:"itemId" binding:"required"`
	Delta     int    `json:"delta"`
}

// AdjustKeeping handles POST /keepings/adjust.
func (h *Handler) AdjustKeeping(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	k, err := h.svc.AdjustKeeping(c.Request.Context(), req.StorageID, req.ItemID, req.Delta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, k)
}

// ItemAvailability handles GET /items/:id/availability?from&to.
func (h *Handler) ItemAvailability(c *gin.Context) {
	w, err := h.times.Window(c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	report, err := h.svc.ItemAvailability(c.Request.Context(), c.Param("id"), w)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ResourceAvailability serves GET /vehicles/:id/availability and GET /drivers/:id/availability.
func (h *Handler) ResourceAvailability(kind domain.ResourceKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := h.times.Window(c.Query("from"), c.Query("to"))
		if err != nil {
			writeError(c, err)
			return
		}
		report, err := h.svc.ResourceAvailability(c.Request.Context(), kind, c.Param("id"), w)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
