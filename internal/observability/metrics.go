package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplesObserved = promauto.NewCounter(prometheus.CounterOpts{Namespace: "fleet_live", Name: "samples_observed_total", Help: "Position samples accepted into the tracker"})
	SamplesStale    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "fleet_live", Name: "samples_stale_total", Help: "Position samples dropped for not being newer than the last one"})
	SamplesInvalid  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "fleet_live", Name: "samples_invalid_total", Help: "Position samples rejected as malformed"})
	EntitiesTracked = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "fleet_live", Name: "entities_tracked", Help: "Entities with live animation state"})

	EventsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleet_live", Name: "change_events_applied_total", Help: "Change-feed events applied to the booking view"},
		[]string{"kind"},
	)
	EventsMalformed = promauto.NewCounter(prometheus.CounterOpts{Namespace: "fleet_live", Name: "change_events_malformed_total", Help: "Change-feed events rejected as malformed"})
	BookingsInView  = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "fleet_live", Name: "bookings_in_view", Help: "Rows currently held in the reconciled booking list"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleet_live", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fleet_live",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
