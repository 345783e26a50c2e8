package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_events_created_total",
		Help: "Total number of events created.",
	})

	WindowsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_availability_windows_total",
		Help: "Total number of availability windows stored.",
	})

	RejectedSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_rejected_submissions_total",
		Help: "Total number of availability submissions rejected as malformed.",
	})

	FinalizeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_finalize_total",
		Help: "Total number of finalize attempts, labelled by outcome.",
	}, []string{"outcome"})

	PushesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_push_notifications_total",
		Help: "Total number of confirmation push notifications, labelled by status.",
	}, []string{"status"})
)
