package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"meeting-scheduler-backend/internal/metrics"
	"meeting-scheduler-backend/internal/model"
)

// PushSender defines the interface for sending a web push notification.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of PushSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans confirmed-event notifications out to push subscribers. An
// event ID is queued once, when its time is confirmed.
type WorkerPool struct {
	size    int
	jobs    chan int64
	db      *gorm.DB
	webpush *webpush.Options
	sender  PushSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case eventID := <-wp.jobs:
			wp.notifyEventConfirmed(ctx, eventID)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// EventConfirmed queues a confirmation notification without blocking the
// finalize path. A full queue drops the notification; the confirmed time is
// already durable and readable, so nothing is lost but the push.
func (wp *WorkerPool) EventConfirmed(eventID int64) {
	select {
	case wp.jobs <- eventID:
	default:
		metrics.PushesSent.WithLabelValues("dropped").Inc()
		log.Printf("notification queue full, dropping push for event %d", eventID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// notifyEventConfirmed fetches the event's subscriptions and pushes the
// confirmed time to each.
func (wp *WorkerPool) notifyEventConfirmed(ctx context.Context, eventID int64) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_event_mapping sem ON sem.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sem.event_id = ?", eventID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for event %d: %v", eventID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	var event model.Event
	if err := wp.db.WithContext(ctx).First(&event, eventID).Error; err != nil {
		log.Printf("error fetching event %d: %v", eventID, err)
		return
	}
	if event.ConfirmedTime == nil {
		log.Printf("event %d has no confirmed time, skipping notifications", eventID)
		return
	}

	label := event.Description
	if label == "" {
		label = fmt.Sprintf("event %d", eventID)
	}
	message := fmt.Sprintf("Meeting time confirmed: %s at %s",
		label, event.ConfirmedTime.UTC().Format(time.RFC3339))

	log.Printf("sending %d notifications for event %d", len(subscriptions), eventID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		metrics.PushesSent.WithLabelValues("error").Inc()
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription for endpoint %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		metrics.PushesSent.WithLabelValues("expired").Inc()
		return
	}

	metrics.PushesSent.WithLabelValues("ok").Inc()
}
