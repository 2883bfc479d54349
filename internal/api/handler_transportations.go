package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"warehouse-reservation-backend/internal/lifecycle"
	"warehouse-reservation-backend/internal/model"
	"warehouse-reservation-backend/internal/parse"
	"warehouse-reservation-backend/internal/scheduling"
)

type scheduleRequest struct {
	ItemID             string `json:"itemId" binding:"required"`
	VehicleID          string `json:"vehicleId" binding:"required"`
	DriverID           string `json:"driverId" binding:"required"`
	FromStorageID      string `json:"fromStorageId" binding:"required"`
	ToStorageID        string `json:"toStorageId" binding:"required"`
	Quantity           int    `json:"quantity"`
	ScheduledDeparture string `json:"scheduledDeparture" binding:"required"`
	ScheduledArrival   string `json:"scheduledArrival" binding:"required"`
}

// ScheduleTransport handles POST /transportations.
func (h *Handler) ScheduleTransport(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	departure, err := h.times.Time(req.ScheduledDeparture)
	if err != nil {
		writeError(c, err)
		return
	}
	arrival, err := h.times.Time(req.ScheduledArrival)
	if err != nil {
		writeError(c, err)
		return
	}

	t, err := h.svc.ScheduleTransport(c.Request.Context(), lifecycle.TransportRequest{
		ItemID:             req.ItemID,
		VehicleID:          req.VehicleID,
		DriverID:           req.DriverID,
		FromStorageID:      req.FromStorageID,
		ToStorageID:        req.ToStorageID,
		Quantity:           req.Quantity,
		ScheduledDeparture: departure,
		ScheduledArrival:   arrival,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.svc.ViewTransportation(*t))
}

// GetTransportation handles GET /transportations/:id.
func (h *Handler) GetTransportation(c *gin.Context) {
	view, err := h.svc.GetTransportation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListTransportations handles GET /transportations?itemId&vehicleId&driverId&status&overdue&limit&offset.
func (h *Handler) ListTransportations(c *gin.Context) {
	limit, offset, err := parse.Page(c.Query("limit"), c.Query("offset"))
	if err != nil {
		writeError(c, err)
		return
	}
	views, err := h.svc.ListTransportations(c.Request.Context(), scheduling.TransportQuery{
		ItemID:    c.Query("itemId"),
		VehicleID: c.Query("vehicleId"),
		DriverID:  c.Query("driverId"),
		Status:    strings.ToUpper(c.Query("status")),
		Overdue:   c.Query("overdue") == "true",
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "limit": limit, "offset": offset})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateTransportStatus handles PATCH /transportations/:id/status.
func (h *Handler) UpdateTransportStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.svc.UpdateTransportStatus(c.Request.Context(), c.Param("id"), model.TransportStatus(strings.ToUpper(req.Status)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.ViewTransportation(*t))
}
