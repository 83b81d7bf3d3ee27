package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingEventsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notification",
			Name:      "booking_events_total",
			Help:      "Total booking webhook events processed.",
		},
		[]string{"status"}, // ignored, no_attendee, non_regional_skipped, success, error
	)

	bookingProcessingDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "notification",
			Name:      "booking_processing_duration_seconds",
			Help:      "Duration of booking event processing including outbound calls.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	deliveriesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notification",
			Name:      "deliveries_total",
			Help:      "Total delivery attempts per channel.",
		},
		[]string{"channel", "kind", "status"}, // kind: confirmation, one_hour, ten_minutes
	)

	reminderHandoffsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notification",
			Name:      "reminder_handoffs_total",
			Help:      "Total reminder handoffs to the delay queue.",
		},
		[]string{"lead_time", "status"},
	)

	reminderCallbacksCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notification",
			Name:      "reminder_callbacks_total",
			Help:      "Total reminder callbacks received from the delay queue.",
		},
		[]string{"lead_time", "status"}, // status: processed, rejected
	)
)
