package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"meeting-scheduler-backend/internal/model"
)

var (
	// ErrEventNotFound is returned when an operation references an event
	// that does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrAlreadyConfirmed is returned by ConfirmEventTime when another
	// finalize already wrote a confirmed time. It is a signal, not a hard
	// failure: the call also returns the time that won.
	ErrAlreadyConfirmed = errors.New("event time already confirmed")
)

// Store defines all database operations the scheduler needs.
type Store interface {
	InsertEvent(ctx context.Context, event *model.Event) error
	GetEvent(ctx context.Context, eventID int64) (*model.Event, error)
	InsertAvailabilityBatch(ctx context.Context, windows []model.AvailabilityWindow) error
	ListAvailability(ctx context.Context, eventID int64) ([]model.AvailabilityWindow, error)
	ConfirmEventTime(ctx context.Context, eventID int64, confirmed time.Time) (time.Time, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for handlers that query directly.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// InsertEvent creates a new open event and fills in its generated ID.
func (s *gormStore) InsertEvent(ctx context.Context, event *model.Event) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetEvent loads a single event by ID.
func (s *gormStore) GetEvent(ctx context.Context, eventID int64) (*model.Event, error) {
	var event model.Event
	err := s.db.WithContext(ctx).First(&event, eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}
	return &event, nil
}

// InsertAvailabilityBatch appends all windows of one submission, in order,
// inside a single transaction. Either every window lands or none does.
func (s *gormStore) InsertAvailabilityBatch(ctx context.Context, windows []model.AvailabilityWindow) error {
	if len(windows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&windows).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert availability batch for event %d: %w", windows[0].EventID, err)
	}
	return nil
}

// ListAvailability returns every stored window for an event. The single
// SELECT is the aggregation snapshot: windows appended afterwards are simply
// not part of the current finalize decision.
func (s *gormStore) ListAvailability(ctx context.Context, eventID int64) ([]model.AvailabilityWindow, error) {
	var windows []model.AvailabilityWindow
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id").
		Find(&windows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list availability for event %d: %w", eventID, err)
	}
	return windows, nil
}

// ConfirmEventTime writes the confirmed time for an event, conditionally: the
// UPDATE matches only while confirmed_time is still NULL, so concurrent
// finalize calls produce exactly one effective write. The returned time is
// the one actually in the row; a caller that lost the race gets the winner's
// time together with ErrAlreadyConfirmed.
func (s *gormStore) ConfirmEventTime(ctx context.Context, eventID int64, confirmed time.Time) (time.Time, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("id = ? AND confirmed_time IS NULL", eventID).
		Update("confirmed_time", confirmed)
	if res.Error != nil {
		return time.Time{}, fmt.Errorf("failed to confirm time for event %d: %w", eventID, res.Error)
	}
	if res.RowsAffected == 1 {
		return confirmed, nil
	}

	// Zero rows: either the event is gone or another writer won. Read back.
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return time.Time{}, err
	}
	if event.ConfirmedTime == nil {
		return time.Time{}, fmt.Errorf("confirm for event %d affected no rows yet event is unconfirmed", eventID)
	}
	return *event.ConfirmedTime, ErrAlreadyConfirmed
}
