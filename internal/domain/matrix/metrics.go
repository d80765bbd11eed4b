package matrix

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pricingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apu_pricing_requests_total",
		Help: "Remote unit price computations by result",
	}, []string{"result"})

	pricingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "apu_pricing_duration_seconds",
		Help:    "Latency of remote unit price computations",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	autoMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apu_auto_matched_rows_total",
		Help: "Suggested rows linked to catalog entries by keyword match",
	})

	saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apu_matrix_saves_total",
		Help: "Matrix saves by mode and result",
	}, []string{"mode", "result"})
)
