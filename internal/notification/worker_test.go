package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockSender is a mock implementation of the PushSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestWorkerPool_EventConfirmed(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.EventConfirmed(123)

	select {
	case job := <-wp.jobs:
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be queued")
	}
}

func TestWorkerPool_EventConfirmed_FullQueueDoesNotBlock(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// No workers running; fill the queue past capacity.
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(wp.jobs)+5; i++ {
			wp.EventConfirmed(int64(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("EventConfirmed blocked on a full queue")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	confirmed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	t.Run("sends notification with the confirmed time", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		wp := NewWorkerPool(1, gormDB, &webpush.Options{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(1)
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "Meeting time confirmed: quarterly sync at 2025-07-01T09:00:00Z", string(payload))
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions".*JOIN .*subscription_event_mapping.*WHERE .*sem\.event_id = \$1`).
			WithArgs(int64(201)).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "participant_id", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push", "alice", "test_p256dh", "test_auth", time.Now()))

		mock.ExpectQuery(`SELECT .* FROM "events" WHERE "events"\."id" = \$1.*LIMIT \$[0-9]+`).
			WithArgs(int64(201), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "description", "confirmed_time"}).
				AddRow(201, "g1", "quarterly sync", confirmed))

		wp.Start(ctx)
		wp.EventConfirmed(201)
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		wp := NewWorkerPool(1, gormDB, &webpush.Options{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions".*JOIN .*subscription_event_mapping.*WHERE .*sem\.event_id = \$1`).
			WithArgs(int64(202)).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "participant_id", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/expired", "bob", "test_p256dh", "test_auth", time.Now()))

		mock.ExpectQuery(`SELECT .* FROM "events" WHERE "events"\."id" = \$1.*LIMIT \$[0-9]+`).
			WithArgs(int64(202), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "description", "confirmed_time"}).
				AddRow(202, "g1", "standup", confirmed))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"\."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Start(ctx)
		wp.EventConfirmed(202)

		// A short sleep to allow the worker to process the job
		time.Sleep(100 * time.Millisecond)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no subscriptions sends nothing", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		wp := NewWorkerPool(1, gormDB, &webpush.Options{})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("unexpected push send")
				return nil, nil
			},
		}

		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions".*JOIN .*subscription_event_mapping.*WHERE .*sem\.event_id = \$1`).
			WithArgs(int64(203)).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "participant_id", "p256dh", "auth", "created_at"}))

		wp.Start(ctx)
		wp.EventConfirmed(203)

		time.Sleep(100 * time.Millisecond)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
