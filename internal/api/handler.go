package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"warehouse-reservation-backend/internal/parse"
	"warehouse-reservation-backend/internal/scheduling"
	"warehouse-reservation-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *scheduling.Service
	store   store.Store
	times   *parse.TimeParser
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *scheduling.Service, s store.Store, times *parse.TimeParser, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		svc:     svc,
		store:   s,
		times:   times,
		webpush: webpushOptions,
	}
}
