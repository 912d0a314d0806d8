package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Records(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.UnserializeSucceeded(time.Millisecond, 3, 7)
	m.UnserializeSucceeded(time.Millisecond, 1, 8)
	m.UnserializeFailed("reparent")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.updates.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updates.WithLabelValues("reparent")))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.treeSize))

	m.TreeDestroyed(time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.destroyed))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.treeSize))
}

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err, "second registration should collide")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.UnserializeSucceeded(time.Second, 1, 1)
		m.UnserializeFailed("x")
		m.TreeDestroyed(time.Second)
	})
}
