package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records cart mutations, checkout transitions and order
// notification delivery.
type CheckoutMetrics struct {
	cartMutations  *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	notifyAttempts prometheus.Histogram
}

// NewCheckoutMetrics registers the collectors on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_transitions_total",
		Help: "Checkout state machine transitions by resulting phase.",
	}, []string{"phase"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_notifications_total",
		Help: "Order notifications by outcome.",
	}, []string{"outcome"})
	notifyAttempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_notification_attempts",
		Help:    "Delivery attempts spent per order notification.",
		Buckets: []float64{1, 2, 3, 4, 5},
	})
	reg.MustRegister(cartMutations, transitions, notifications, notifyAttempts)
	return &CheckoutMetrics{
		cartMutations:  cartMutations,
		transitions:    transitions,
		notifications:  notifications,
		notifyAttempts: notifyAttempts,
	}
}

// IncCartMutation counts one cart operation.
func (m *CheckoutMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncTransition counts one transition into phase.
func (m *CheckoutMetrics) IncTransition(phase string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(phase)).Inc()
}

// ObserveNotification records the outcome of one order notification.
func (m *CheckoutMetrics) ObserveNotification(delivered bool, attempts int) {
	if m == nil || m.notifications == nil {
		return
	}
	outcome := "failed"
	if delivered {
		outcome = "delivered"
	}
	m.notifications.WithLabelValues(outcome).Inc()
	m.notifyAttempts.Observe(float64(attempts))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
