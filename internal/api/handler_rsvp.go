package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"meeting-scheduler-backend/internal/parse"
	"meeting-scheduler-backend/internal/store"
)

type rsvpRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	// AvailableTime carries whitespace-separated marker tokens, alternating
	// start:<YY>-<MM>-<DD>:<HH>-<MM> and end:<YY>-<MM>-<DD>:<HH>-<MM>.
	AvailableTime string `json:"available_time" binding:"required"`
}

// RecordAvailability handles the POST /api/events/{event_id}/rsvp request.
// The submission is all-or-nothing: one malformed marker rejects the batch.
func (h *Handler) RecordAvailability(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	var req rsvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens := strings.Fields(req.AvailableTime)
	count, err := h.svc.RecordAvailability(c.Request.Context(), req.ParticipantID, eventID, tokens)
	switch {
	case errors.Is(err, parse.ErrMalformed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, store.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record availability"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Availability recorded successfully (%d windows)", count),
		"windows": count,
	})
}
