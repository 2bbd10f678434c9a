package campaign

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	campaignSendCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connector",
			Name:      "campaign_sends_total",
			Help:      "Campaign targets by outcome.",
		},
		[]string{"result"}, // sent, failed, duplicate
	)

	campaignDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "connector",
			Name:      "campaign_dispatch_duration_seconds",
			Help:      "Duration of a campaign dispatch.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
)
