// Package metrics exposes the Prometheus collectors of the booking
// service.  Collectors register with the default registry on import and
// are served by the /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_booking_outcomes_total",
			Help: "Completed booking attempts by terminal status and reason",
		},
		[]string{"status", "reason"},
	)

	bookingErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_booking_errors_total",
			Help: "Booking attempts aborted by an infrastructure error",
		},
	)

	bookingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seat_booking_attempt_duration_seconds",
			Help:    "Duration of booking transactions",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	reaperSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_booking_reaper_expired_total",
			Help: "Pending bookings failed by the reaper",
		},
	)

	reaperErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_booking_reaper_errors_total",
			Help: "Reaper sweeps that failed",
		},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_booking_events_published_total",
			Help: "Booking events handed to the broker",
		},
		[]string{"result"},
	)
)

// ObserveBooking records a completed attempt.  reason is empty for
// confirmed bookings.
func ObserveBooking(status, reason string, took time.Duration) {
	bookingOutcomes.WithLabelValues(status, reason).Inc()
	bookingDuration.Observe(took.Seconds())
}

// ObserveBookingError records an attempt that was rolled back.
func ObserveBookingError(took time.Duration) {
	bookingErrors.Inc()
	bookingDuration.Observe(took.Seconds())
}

// ObserveSweep records one reaper sweep.
func ObserveSweep(expired int64, err error) {
	if err != nil {
		reaperErrors.Inc()
		return
	}
	reaperSwept.Add(float64(expired))
}

// ObservePublish records one event publish.
func ObservePublish(err error) {
	if err != nil {
		eventsPublished.WithLabelValues("error").Inc()
		return
	}
	eventsPublished.WithLabelValues("ok").Inc()
}
