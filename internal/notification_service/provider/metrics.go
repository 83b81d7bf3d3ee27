package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "notification",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of HTTP requests to delivery providers.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name"},
	)

	providerRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notification",
			Name:      "provider_requests_total",
			Help:      "Total requests to delivery providers by result.",
		},
		[]string{"provider_name", "status"}, // success, error
	)
)

func observeResult(providerName string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	providerRequestsCounter.WithLabelValues(providerName, status).Inc()
}
