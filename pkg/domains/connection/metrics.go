package connection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connector",
			Name:      "reconcile_total",
			Help:      "Connection reconciliations by outcome.",
		},
		[]string{"result"}, // changed, unchanged, error
	)

	notificationFailureCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "connector",
			Name:      "connected_notification_failures_total",
			Help:      "Connected notifications that could not be delivered.",
		},
	)

	sweepDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "connector",
			Name:      "reconcile_sweep_duration_seconds",
			Help:      "Duration of a full reconcile sweep.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
