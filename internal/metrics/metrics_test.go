package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBooking(t *testing.T) {
	before := testutil.ToFloat64(bookingOutcomes.WithLabelValues("FAILED", "Some seats already booked"))
	ObserveBooking("FAILED", "Some seats already booked", 3*time.Millisecond)
	after := testutil.ToFloat64(bookingOutcomes.WithLabelValues("FAILED", "Some seats already booked"))
	assert.Equal(t, before+1, after)
}

func TestObserveSweep(t *testing.T) {
	swept := testutil.ToFloat64(reaperSwept)
	errs := testutil.ToFloat64(reaperErrors)

	ObserveSweep(4, nil)
	ObserveSweep(0, errors.New("db down"))

	assert.Equal(t, swept+4, testutil.ToFloat64(reaperSwept))
	assert.Equal(t, errs+1, testutil.ToFloat64(reaperErrors))
}
