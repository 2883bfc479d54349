package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warehouse-reservation-backend/internal/lifecycle"
	"warehouse-reservation-backend/internal/parse"
	"warehouse-reservation-backend/internal/scheduling"
)

type reserveRequest struct {
	ItemID             string `json:"itemId" binding:"required"`
	UserID             string `json:"userId" binding:"required"`
	Quantity           int    `json:"quantity"`
	BorrowDate         string `json:"borrowDate" binding:"required"`
	ExpectedReturnDate string `json:"expectedReturnDate" binding:"required"`
	Purpose            string `json:"purpose"`
}

// ReserveItem handles POST /borrowings.
func (h *Handler) ReserveItem(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	from, err := h.times.Time(req.BorrowDate)
	if err != nil {
		writeError(c, err)
		return
	}
	to, err := h.times.Time(req.ExpectedReturnDate)
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := h.svc.ReserveItem(c.Request.Context(), lifecycle.BorrowRequest{
		ItemID:             req.ItemID,
		UserID:             req.UserID,
		Quantity:           req.Quantity,
		BorrowDate:         from,
		ExpectedReturnDate: to,
		Purpose:            req.Purpose,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.svc.ViewBorrowing(*b))
}

// GetBorrowing handles GET /borrowings/:id.
func (h *Handler) GetBorrowing(c *gin.Context) {
	view, err := h.svc.GetBorrowing(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListBorrowings handles GET /borrowings?itemId&userId&status&limit&offset.
func (h *Handler) ListBorrowings(c *gin.Context) {
	limit, offset, err := parse.Page(c.Query("limit"), c.Query("offset"))
	if err != nil {
		writeError(c, err)
		return
	}
	views, err := h.svc.ListBorrowings(c.Request.Context(), scheduling.BorrowingQuery{
		ItemID: c.Query("itemId"),
		UserID: c.Query("userId"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "limit": limit, "offset": offset})
}

// ActivateBorrowing handles POST /borrowings/:id/activate.
func (h *Handler) ActivateBorrowing(c *gin.Context) {
	b, err := h.svc.ActivateBorrowing(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.ViewBorrowing(*b))
}

type extendRequest struct {
	ExpectedReturnDate string `json:"expectedReturnDate" binding:"required"`
}

// ExtendBorrowing handles POST /borrowings/:id/extend.
func (h *Handler) ExtendBorrowing(c *gin.Context) {
	var req extendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	due, err := h.times.Time(req.ExpectedReturnDate)
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := h.svc.ExtendBorrowing(c.Request.Context(), c.Param("id"), due)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.ViewBorrowing(*b))
}

// ReturnItem handles POST /borrowings/:id/return.
func (h *Handler) ReturnItem(c *gin.Context) {
	b, err := h.svc.ReturnItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.ViewBorrowing(*b))
}

// CancelBorrowing handles POST /borrowings/:id/cancel.
func (h *Handler) CancelBorrowing(c *gin.Context) {
	b, err := h.svc.CancelBorrowing(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.ViewBorrowing(*b))
}
