package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meeting-scheduler-backend/internal/schedule"
	"meeting-scheduler-backend/internal/store"
)

// FinalizeEvent handles the POST /api/events/{event_id}/finalize request. A
// finalize without availability is retriable: the event stays open and the
// caller may try again after more submissions. Losing a concurrent finalize
// race is reported as already-confirmed, with the time that won.
func (h *Handler) FinalizeEvent(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	res, err := h.svc.Finalize(c.Request.Context(), eventID)
	switch {
	case errors.Is(err, store.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	case errors.Is(err, schedule.ErrNoAvailability), errors.Is(err, schedule.ErrNoCandidate):
		c.JSON(http.StatusConflict, gin.H{"error": "No availability recorded for this event yet"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize event"})
		return
	}

	message := "Event time confirmed"
	if res.AlreadyConfirmed {
		message = "Event time already confirmed"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        message,
		"confirmed_time": res.ConfirmedTime.UTC().Format(time.RFC3339),
	})
}
