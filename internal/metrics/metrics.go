package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// HTTPRequestDuration is observed by the request logging middleware.
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "civicpulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of API requests by method, route and status code.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})

	ReportsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicpulse",
		Subsystem: "reports",
		Name:      "created_total",
		Help:      "Reports submitted, labeled by category.",
	}, []string{"category"})

	StatusTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicpulse",
		Subsystem: "reports",
		Name:      "status_transitions_total",
		Help:      "Status changes applied to reports, labeled by target status.",
	}, []string{"status"})

	NotesAddedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicpulse",
		Subsystem: "reports",
		Name:      "notes_added_total",
		Help:      "Staff notes appended to reports, labeled by visibility.",
	}, []string{"visibility"})

	VotesCastTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicpulse",
		Subsystem: "engagement",
		Name:      "votes_cast_total",
		Help:      "Votes cast, labeled by vote type and resulting action.",
	}, []string{"vote_type", "action"})

	CommentsAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civicpulse",
		Subsystem: "engagement",
		Name:      "comments_added_total",
		Help:      "Comments posted on reports.",
	})

	MediaUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civicpulse",
		Subsystem: "media",
		Name:      "uploads_total",
		Help:      "Media uploads, labeled by result.",
	}, []string{"result"})

	CachedReports = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "civicpulse",
		Subsystem: "reports",
		Name:      "cached",
		Help:      "Number of reports held in the process-local report cache.",
	})

	EventPublishErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civicpulse",
		Subsystem: "events",
		Name:      "publish_errors_total",
		Help:      "Domain events that could not be published.",
	})
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestDuration,
			ReportsCreatedTotal,
			StatusTransitionsTotal,
			NotesAddedTotal,
			VotesCastTotal,
			CommentsAddedTotal,
			MediaUploadsTotal,
			CachedReports,
			EventPublishErrorsTotal,
		)
	})
}
