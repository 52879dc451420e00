package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for availability and booking.
type Metrics struct {
	// ReservationsAdmitted counts committed reservations.
	ReservationsAdmitted prometheus.Counter

	// ReservationConflicts counts admissions rejected on seat overlap.
	ReservationConflicts prometheus.Counter

	// CacheHits and CacheMisses count availability cache lookups by scope
	// (day or month).
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// CacheErrors counts swallowed cache failures.
	CacheErrors prometheus.Counter

	// AvailabilityBuildDuration is the time to build a seat matrix.
	AvailabilityBuildDuration prometheus.Histogram
}

// New creates and registers the collectors. A nil registerer uses the default
// registry; tests pass their own to avoid duplicate registration.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ReservationsAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_admitted_total",
			Help:      "Total number of reservations committed",
		}),

		ReservationConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_conflicts_total",
			Help:      "Total number of admissions rejected on seat overlap",
		}),

		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_cache_hits_total",
			Help:      "Availability cache hits",
		}, []string{"scope"}),

		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_cache_misses_total",
			Help:      "Availability cache misses",
		}, []string{"scope"}),

		CacheErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_cache_errors_total",
			Help:      "Cache failures swallowed by the read-through layer",
		}),

		AvailabilityBuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "availability_build_duration_seconds",
			Help:      "Time to build a per-seat availability matrix",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		}),
	}
}
