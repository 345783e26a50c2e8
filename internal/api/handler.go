package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"meeting-scheduler-backend/internal/scheduler"
	"meeting-scheduler-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *scheduler.Service
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *scheduler.Service, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		svc:     svc,
		store:   s,
		webpush: webpushOptions,
	}
}
