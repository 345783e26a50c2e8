package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"meeting-scheduler-backend/internal/model"
	"meeting-scheduler-backend/internal/store"
)

type createEventRequest struct {
	GroupID     string `json:"group_id" binding:"required"`
	Period      string `json:"period" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// eventResponse is the API shape of an event.
type eventResponse struct {
	EventID       int64      `json:"event_id"`
	GroupID       string     `json:"group_id"`
	Period        string     `json:"period"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	ConfirmedTime *time.Time `json:"confirmed_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toEventResponse(event *model.Event) eventResponse {
	status := "open"
	if event.Confirmed() {
		status = "confirmed"
	}
	return eventResponse{
		EventID:       event.ID,
		GroupID:       event.GroupID,
		Period:        event.Period,
		Description:   event.Description,
		Status:        status,
		ConfirmedTime: event.ConfirmedTime,
		CreatedAt:     event.CreatedAt,
	}
}

// eventIDParam parses the :event_id path parameter.
func eventIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("event_id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return 0, false
	}
	return id, true
}

// CreateEvent handles the POST /api/events request.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventID, err := h.svc.CreateEvent(c.Request.Context(), req.GroupID, req.Period, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event_id": eventID})
}

// GetEvent handles the GET /api/events/{event_id} request.
func (h *Handler) GetEvent(c *gin.Context) {
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	event, err := h.svc.Event(c.Request.Context(), eventID)
	if errors.Is(err, store.ErrEventNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event"})
		return
	}

	c.JSON(http.StatusOK, toEventResponse(event))
}
