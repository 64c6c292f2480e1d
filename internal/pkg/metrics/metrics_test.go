package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	m.MustRegister(reg)

	m.WebhookEvents.WithLabelValues("customer.subscription.deleted", "applied").Inc()
	m.WebhookEvents.WithLabelValues("customer.subscription.deleted", "applied").Inc()
	m.AdminActions.WithLabelValues("grant_premium").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WebhookEvents.WithLabelValues("customer.subscription.deleted", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdminActions.WithLabelValues("grant_premium")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 2)
}

func TestGetIsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}
