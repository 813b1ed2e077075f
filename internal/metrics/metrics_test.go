package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("customer", "confirmed")
	m.ObserveBooking("customer", "confirmed")
	m.ObserveBooking("admin", "conflict")
	m.ObserveTransition("cancelled")
	m.ObserveAvailability("ok", 12)
	m.ObserveAvailability("store_unavailable", 0)
	m.ObserveLockWait(0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("customer", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("admin", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("cancelled")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.slotsReturned))
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("customer", "confirmed")
	m.ObserveTransition("completed")
	m.ObserveAvailability("ok", 3)
	m.ObserveLockWait(0.1)
}
