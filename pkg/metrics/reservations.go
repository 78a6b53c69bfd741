package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReservationMetrics counts stock reservation outcomes.
type ReservationMetrics struct {
	reserved *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewReservationMetrics registers the reservation counters on the provided registerer.
func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	if reg == nil {
		return &ReservationMetrics{}
	}
	reserved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_reservations_total",
		Help: "Successful stock reservations and releases.",
	}, []string{"op"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_reservation_rejections_total",
		Help: "Rejected reservation and release attempts, labeled by reason.",
	}, []string{"op", "reason"})
	reg.MustRegister(reserved, rejected)
	return &ReservationMetrics{reserved: reserved, rejected: rejected}
}

// IncReserved records a successful operation ("reserve" or "release").
func (m *ReservationMetrics) IncReserved(op string) {
	if m == nil || m.reserved == nil {
		return
	}
	m.reserved.WithLabelValues(op).Inc()
}

// IncRejected records a rejected operation with its reason.
func (m *ReservationMetrics) IncRejected(op, reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(op, reason).Inc()
}
