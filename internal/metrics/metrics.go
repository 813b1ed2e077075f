package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts booking outcomes and availability lookups.
type BookingMetrics struct {
	bookingsTotal     *prometheus.CounterVec
	transitionsTotal  *prometheus.CounterVec
	availabilityTotal *prometheus.CounterVec
	slotsReturned     prometheus.Histogram
	lockWait          prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking confirmations by outcome",
		}, []string{"source", "outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Appointments moved to a terminal status",
		}, []string{"status"}),
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "availability",
			Name:      "requests_total",
			Help:      "Availability lookups by outcome",
		}, []string{"outcome"}),
		slotsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "barbershop",
			Subsystem: "availability",
			Name:      "slots_returned",
			Help:      "Number of start times offered per lookup",
			Buckets:   []float64{0, 1, 2, 4, 8, 12, 16, 20, 24},
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the day lock",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.transitionsTotal, m.availabilityTotal, m.slotsReturned, m.lockWait)
	return m
}

func (m *BookingMetrics) ObserveBooking(source, outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(source, outcome).Inc()
}

func (m *BookingMetrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveAvailability(outcome string, slots int) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.slotsReturned.Observe(float64(slots))
	}
}

func (m *BookingMetrics) ObserveLockWait(seconds float64) {
	if m == nil {
		return
	}
	m.lockWait.Observe(seconds)
}
