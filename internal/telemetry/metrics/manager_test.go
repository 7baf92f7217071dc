package metrics_test

import (
	"testing"

	"github.com/2beens/gymcoach/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RegistersOnGivenRegistry(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()

	m.CounterWorkoutsStarted.Inc()
	m.CounterStorageErrors.WithLabelValues("WRITE").Inc()
	m.GaugeActiveWorkout.Set(1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterWorkoutsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterStorageErrors.WithLabelValues("WRITE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GaugeActiveWorkout))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["gymcoach_test_server_workouts_started"])
	assert.True(t, names["gymcoach_test_server_storage_errors"])
}

func TestNewManager_TwoManagersDoNotClash(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.NewTestManager()
		metrics.NewTestManager()
	})
}

func TestSetupPrometheus(t *testing.T) {
	extra := prometheus.NewCounter(prometheus.CounterOpts{Name: "extra_total", Help: "extra"})
	reg := metrics.SetupPrometheus(extra)
	extra.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "extra_total" {
			found = true
		}
	}
	assert.True(t, found)
}
