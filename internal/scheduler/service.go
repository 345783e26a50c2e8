// Package scheduler owns the event lifecycle: events are created open,
// collect availability submissions, and are confirmed at most once by
// Finalize. All cross-request coordination happens through the store.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"meeting-scheduler-backend/internal/metrics"
	"meeting-scheduler-backend/internal/model"
	"meeting-scheduler-backend/internal/parse"
	"meeting-scheduler-backend/internal/schedule"
	"meeting-scheduler-backend/internal/store"
)

// ErrMissingParameter is returned when a required action parameter is empty.
var ErrMissingParameter = errors.New("missing required parameter")

// ConfirmationNotifier is told when an event's time has been confirmed.
// Implementations must not block the caller.
type ConfirmationNotifier interface {
	EventConfirmed(eventID int64)
}

// Service coordinates parsing, storage, and slot selection for events.
type Service struct {
	store        store.Store
	slotWidth    time.Duration
	storeTimeout time.Duration
	notifier     ConfirmationNotifier
}

// NewService creates the lifecycle service. notifier may be nil when push
// notifications are not configured.
func NewService(s store.Store, slotWidth, storeTimeout time.Duration, notifier ConfirmationNotifier) *Service {
	if slotWidth <= 0 {
		slotWidth = schedule.DefaultSlotWidth
	}
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{
		store:        s,
		slotWidth:    slotWidth,
		storeTimeout: storeTimeout,
		notifier:     notifier,
	}
}

// FinalizeResult reports the outcome of a finalize call. AlreadyConfirmed is
// true when a previous (or concurrent) finalize won the write; ConfirmedTime
// is the effective confirmed time either way.
type FinalizeResult struct {
	ConfirmedTime    time.Time
	AlreadyConfirmed bool
}

// CreateEvent inserts a new open event for a group and returns its ID.
func (svc *Service) CreateEvent(ctx context.Context, groupID, period, description string) (int64, error) {
	if strings.TrimSpace(groupID) == "" {
		return 0, fmt.Errorf("%w: group_id", ErrMissingParameter)
	}
	ctx, cancel := context.WithTimeout(ctx, svc.storeTimeout)
	defer cancel()

	event := model.Event{
		GroupID:     groupID,
		Period:      period,
		Description: description,
	}
	if err := svc.store.InsertEvent(ctx, &event); err != nil {
		return 0, err
	}
	metrics.EventsCreated.Inc()
	log.Printf("created event %d for group %s", event.ID, groupID)
	return event.ID, nil
}

// Event loads one event by ID.
func (svc *Service) Event(ctx context.Context, eventID int64) (*model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.storeTimeout)
	defer cancel()
	return svc.store.GetEvent(ctx, eventID)
}

// RecordAvailability parses a participant's raw window tokens and appends the
// resulting windows as one all-or-nothing batch. Nothing is written unless
// every token validates. Returns the number of windows stored.
func (svc *Service) RecordAvailability(ctx context.Context, participantID string, eventID int64, tokens []string) (int, error) {
	if strings.TrimSpace(participantID) == "" {
		return 0, fmt.Errorf("%w: participant_id", ErrMissingParameter)
	}
	if eventID <= 0 {
		return 0, fmt.Errorf("%w: event_id", ErrMissingParameter)
	}

	windows, err := parse.Windows(tokens)
	if err != nil {
		metrics.RejectedSubmissions.Inc()
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, svc.storeTimeout)
	defer cancel()

	// Validation happens before any write; the event must exist.
	if _, err := svc.store.GetEvent(ctx, eventID); err != nil {
		return 0, err
	}

	submissionID := uuid.New().String()
	rows := make([]model.AvailabilityWindow, len(windows))
	for i, w := range windows {
		rows[i] = model.AvailabilityWindow{
			EventID:       eventID,
			ParticipantID: participantID,
			SubmissionID:  submissionID,
			StartTime:     w.Start,
			EndTime:       w.End,
		}
	}
	if err := svc.store.InsertAvailabilityBatch(ctx, rows); err != nil {
		return 0, err
	}

	metrics.WindowsRecorded.Add(float64(len(rows)))
	log.Printf("recorded %d windows for participant %s on event %d (submission %s)",
		len(rows), participantID, eventID, submissionID)
	return len(rows), nil
}

// Finalize computes the best 30-minute slot over the event's current
// availability snapshot and confirms it. A failed finalize (no availability)
// leaves the event open; losing a concurrent finalize race is not an error
// and yields the winner's time.
func (svc *Service) Finalize(ctx context.Context, eventID int64) (FinalizeResult, error) {
	if eventID <= 0 {
		return FinalizeResult{}, fmt.Errorf("%w: event_id", ErrMissingParameter)
	}

	ctx, cancel := context.WithTimeout(ctx, svc.storeTimeout)
	defer cancel()

	event, err := svc.store.GetEvent(ctx, eventID)
	if err != nil {
		metrics.FinalizeOutcomes.WithLabelValues("error").Inc()
		return FinalizeResult{}, err
	}
	if event.Confirmed() {
		metrics.FinalizeOutcomes.WithLabelValues("already_confirmed").Inc()
		return FinalizeResult{ConfirmedTime: *event.ConfirmedTime, AlreadyConfirmed: true}, nil
	}

	rows, err := svc.store.ListAvailability(ctx, eventID)
	if err != nil {
		metrics.FinalizeOutcomes.WithLabelValues("error").Inc()
		return FinalizeResult{}, err
	}

	windows := make([]schedule.Window, len(rows))
	for i, r := range rows {
		windows[i] = schedule.Window{
			ParticipantID: r.ParticipantID,
			Start:         r.StartTime,
			End:           r.EndTime,
		}
	}

	slots, err := schedule.Aggregate(windows, svc.slotWidth)
	if err != nil {
		metrics.FinalizeOutcomes.WithLabelValues("no_availability").Inc()
		return FinalizeResult{}, err
	}
	best, err := schedule.BestSlot(slots)
	if err != nil {
		metrics.FinalizeOutcomes.WithLabelValues("no_availability").Inc()
		return FinalizeResult{}, err
	}

	confirmed, err := svc.store.ConfirmEventTime(ctx, eventID, best)
	if errors.Is(err, store.ErrAlreadyConfirmed) {
		metrics.FinalizeOutcomes.WithLabelValues("already_confirmed").Inc()
		return FinalizeResult{ConfirmedTime: confirmed, AlreadyConfirmed: true}, nil
	}
	if err != nil {
		metrics.FinalizeOutcomes.WithLabelValues("error").Inc()
		return FinalizeResult{}, err
	}

	metrics.FinalizeOutcomes.WithLabelValues("confirmed").Inc()
	log.Printf("confirmed event %d at %s (%d windows considered)",
		eventID, confirmed.Format(time.RFC3339), len(rows))

	if svc.notifier != nil {
		svc.notifier.EventConfirmed(eventID)
	}
	return FinalizeResult{ConfirmedTime: confirmed}, nil
}
