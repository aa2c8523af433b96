package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCheckoutMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncCartMutation("add")
	m.IncCartMutation("add")
	m.IncTransition("success")
	m.IncTransition("")
	m.ObserveNotification(false, 3)
	m.ObserveNotification(true, 1)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.cartMutations.WithLabelValues("add")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("unknown")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.notifications.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.notifications.WithLabelValues("delivered")))
}

func TestCheckoutMetrics_NilSafe(t *testing.T) {
	var m *CheckoutMetrics
	assert.NotPanics(t, func() {
		m.IncCartMutation("add")
		m.IncTransition("success")
		m.ObserveNotification(true, 1)
	})

	noop := NewCheckoutMetrics(nil)
	assert.NotPanics(t, func() {
		noop.ObserveNotification(false, 3)
	})
}
