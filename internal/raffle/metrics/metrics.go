package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the raffle domain.
type Metrics struct {
	EntriesCreated  prometheus.Counter
	DrawsCompleted  prometheus.Counter
	WinnersAssigned prometheus.Counter
	Verifications   *prometheus.CounterVec
	DrawDuration    prometheus.Histogram
}

// New creates and registers all raffle metrics on the default registerer.
func New() *Metrics {
	return &Metrics{
		EntriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdraw_entries_created_total",
			Help: "Total number of raffle entries accepted",
		}),
		DrawsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdraw_draws_completed_total",
			Help: "Total number of pools drawn to completion (no-op draws included)",
		}),
		WinnersAssigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fairdraw_winners_assigned_total",
			Help: "Total number of winning entries assigned a ticket",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fairdraw_verifications_total",
			Help: "Total number of verification runs by result",
		}, []string{"result"}),
		DrawDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fairdraw_draw_duration_seconds",
			Help:    "Wall time of the draw transaction",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
