// Package metrics holds the Prometheus collectors for the complaint lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts lifecycle operations by outcome kind.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaintdesk_transitions_total",
			Help: "Complaint lifecycle operations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// FCFSAttempts observes how many CAS attempts an FCFS assignment took.
	FCFSAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "complaintdesk_fcfs_attempts",
			Help:    "Attempts needed to claim the oldest pending complaint",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
	)

	// LiveSubscriptions is the number of open live views.
	LiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "complaintdesk_live_subscriptions",
			Help: "Currently open live view subscriptions",
		},
	)

	// EventPublishFailures counts change events that could not be published.
	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "complaintdesk_event_publish_failures_total",
			Help: "Complaint change events that failed to publish",
		},
	)
)

// ObserveTransition records the outcome of one lifecycle operation.
func ObserveTransition(op, outcome string) {
	TransitionsTotal.WithLabelValues(op, outcome).Inc()
}
