package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration
	a := New("")
	b := New("")

	a.Receipts.ReceiptsCreated.WithLabelValues("NORMAL").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.Receipts.ReceiptsCreated.WithLabelValues("NORMAL")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Receipts.ReceiptsCreated.WithLabelValues("NORMAL")))
}

func TestNew_Gathers(t *testing.T) {
	m := New("test")
	m.Receipts.ReceiptsLive.Set(3)
	m.HTTP.RequestsTotal.WithLabelValues("GET", "/health", "200").Inc()

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["test_receipts_live"])
	assert.True(t, names["test_http_requests_total"])
}
