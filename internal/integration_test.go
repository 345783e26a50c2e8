package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"meeting-scheduler-backend/internal/api"
	"meeting-scheduler-backend/internal/model"
	"meeting-scheduler-backend/internal/scheduler"
	"meeting-scheduler-backend/internal/store"
)

// newTestServer wires the full stack against an in-memory SQLite database.
func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})

	require.NoError(t, testDB.AutoMigrate(
		&model.Event{},
		&model.AvailabilityWindow{},
		&model.PushSubscription{},
	))

	appStore := store.NewGormStore(testDB)
	svc := scheduler.NewService(appStore, 30*time.Minute, 5*time.Second, nil)
	router := api.NewRouter(svc, appStore, nil, api.RouterOptions{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTL:        time.Minute,
	})
	return router, testDB
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// TestEventSchedulingLifecycle drives a full event from creation through RSVP
// submissions to a confirmed time, over the HTTP surface, and verifies the
// database state at each step.
func TestEventSchedulingLifecycle(t *testing.T) {
	router, testDB := newTestServer(t)

	// Create an event.
	w := doJSON(t, router, "POST", "/api/events", map[string]any{
		"group_id":    "team-awesome",
		"period":      "2025-07-01 to 2025-07-07",
		"description": "quarterly planning",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	eventID := int64(decodeBody(t, w)["event_id"].(float64))
	require.NotZero(t, eventID)

	rsvpPath := fmt.Sprintf("/api/events/%d/rsvp", eventID)
	finalizePath := fmt.Sprintf("/api/events/%d/finalize", eventID)

	// Finalize with zero availability is retriable; the event stays open.
	w = doJSON(t, router, "POST", finalizePath, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var event model.Event
	require.NoError(t, testDB.First(&event, eventID).Error)
	assert.Nil(t, event.ConfirmedTime)

	// Three participants submit availability.
	submissions := []map[string]any{
		{"participant_id": "A", "available_time": "start:25-07-01:09-00 end:25-07-01:10-00"},
		{"participant_id": "B", "available_time": "start:25-07-01:09-30 end:25-07-01:10-30"},
		{"participant_id": "C", "available_time": "start:25-07-01:09-00 end:25-07-01:09-30"},
	}
	for _, sub := range submissions {
		w = doJSON(t, router, "POST", rsvpPath, sub)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// A malformed submission is rejected whole; no extra rows appear.
	w = doJSON(t, router, "POST", rsvpPath, map[string]any{
		"participant_id": "D",
		"available_time": "start:25-07-01:11-00 end:25-07-01:12-00 start:25-07-01:13-00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var windowCount int64
	testDB.Model(&model.AvailabilityWindow{}).Where("event_id = ?", eventID).Count(&windowCount)
	assert.Equal(t, int64(3), windowCount)

	// Finalize picks the earliest of the tied max-coverage slots: both
	// [09:00, 09:30) and [09:30, 10:00) have coverage 2.
	w = doJSON(t, router, "POST", finalizePath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "Event time confirmed", body["message"])
	assert.Equal(t, "2025-07-01T09:00:00Z", body["confirmed_time"])

	require.NoError(t, testDB.First(&event, eventID).Error)
	require.NotNil(t, event.ConfirmedTime)
	assert.Equal(t, time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC), event.ConfirmedTime.UTC())

	// A second finalize is idempotent: same time, reported as already done.
	w = doJSON(t, router, "POST", finalizePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "Event time already confirmed", body["message"])
	assert.Equal(t, "2025-07-01T09:00:00Z", body["confirmed_time"])

	// Late availability after confirmation is stored but changes nothing.
	w = doJSON(t, router, "POST", rsvpPath, map[string]any{
		"participant_id": "E",
		"available_time": "start:25-07-02:09-00 end:25-07-02:17-00",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", finalizePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-07-01T09:00:00Z", decodeBody(t, w)["confirmed_time"])

	// The event read-back reflects the confirmed state.
	w = doJSON(t, router, "GET", fmt.Sprintf("/api/events/%d", eventID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "confirmed", body["status"])
}

// TestConcurrentFinalize runs two finalize calls against the same event and
// checks that exactly one write took effect and both callers see it.
func TestConcurrentFinalize(t *testing.T) {
	router, testDB := newTestServer(t)

	w := doJSON(t, router, "POST", "/api/events", map[string]any{
		"group_id":    "team-race",
		"period":      "2025-08-01 to 2025-08-02",
		"description": "retro",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	eventID := int64(decodeBody(t, w)["event_id"].(float64))

	w = doJSON(t, router, "POST", fmt.Sprintf("/api/events/%d/rsvp", eventID), map[string]any{
		"participant_id": "A",
		"available_time": "start:25-08-01:14-00 end:25-08-01:15-00",
	})
	require.Equal(t, http.StatusOK, w.Code)

	finalizePath := fmt.Sprintf("/api/events/%d/finalize", eventID)

	var wg sync.WaitGroup
	results := make([]*httptest.ResponseRecorder, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = doJSON(t, router, "POST", finalizePath, nil)
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())
		assert.Equal(t, "2025-08-01T14:00:00Z", decodeBody(t, res)["confirmed_time"])
	}

	var event model.Event
	require.NoError(t, testDB.First(&event, eventID).Error)
	require.NotNil(t, event.ConfirmedTime)
	assert.Equal(t, time.Date(2025, 8, 1, 14, 0, 0, 0, time.UTC), event.ConfirmedTime.UTC())
}
