package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementAccess("audio", "legacy")
	m.IncrementAccess("audio", "legacy")
	m.IncrementAccess("audio", "registry")
	m.IncrementRollback("global")
	m.IncrementTransitions()
	m.SetHealthScore(85)
	m.SetProgress(60, 40)
	m.SetFinalized(true)
	m.ObserveTick(3 * time.Millisecond)
	m.SetRouted("audio", true)
	m.SetRouted("effects", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Accesses.WithLabelValues("audio", "legacy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Accesses.WithLabelValues("audio", "registry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rollbacks.WithLabelValues("global")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions))
	assert.Equal(t, 85.0, testutil.ToFloat64(m.HealthScore))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.ScheduleProgress))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.MigrationProgress))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Finalized))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TickDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Routed.WithLabelValues("audio")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Routed.WithLabelValues("effects")))
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
