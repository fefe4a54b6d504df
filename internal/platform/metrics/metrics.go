package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the migration service.
type Metrics struct {
	Accesses          *prometheus.CounterVec
	Rollbacks         *prometheus.CounterVec
	Transitions       prometheus.Counter
	HealthScore       prometheus.Gauge
	ScheduleProgress  prometheus.Gauge
	MigrationProgress prometheus.Gauge
	Finalized         prometheus.Gauge
	Routed            *prometheus.GaugeVec
	TickDuration      prometheus.Histogram
}

// New creates the metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Accesses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "handoff_service_access_total",
			Help: "Service accesses per subsystem and path (legacy or registry)",
		}, []string{"subsystem", "kind"}),
		Rollbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "handoff_rollbacks_total",
			Help: "Rollbacks executed, by scope",
		}, []string{"scope"}),
		Transitions: f.NewCounter(prometheus.CounterOpts{
			Name: "handoff_phase_transitions_total",
			Help: "Migration phase transitions",
		}),
		HealthScore: f.NewGauge(prometheus.GaugeOpts{
			Name: "handoff_health_score",
			Help: "Latest health score (0-100)",
		}),
		ScheduleProgress: f.NewGauge(prometheus.GaugeOpts{
			Name: "handoff_schedule_progress_percent",
			Help: "Rollout schedule progress by phase",
		}),
		MigrationProgress: f.NewGauge(prometheus.GaugeOpts{
			Name: "handoff_migration_progress_percent",
			Help: "Share of subsystems routed to the registry",
		}),
		Finalized: f.NewGauge(prometheus.GaugeOpts{
			Name: "handoff_finalized",
			Help: "1 once legacy access has been permanently disabled",
		}),
		Routed: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "handoff_subsystem_routed",
			Help: "1 while a subsystem's calls go to the registry",
		}, []string{"subsystem"}),
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "handoff_monitor_tick_duration_ms",
			Help:    "Duration of trend monitor ticks in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
	}
}

func (m *Metrics) IncrementAccess(subsystem, kind string) {
	m.Accesses.WithLabelValues(subsystem, kind).Inc()
}

func (m *Metrics) IncrementRollback(scope string) {
	m.Rollbacks.WithLabelValues(scope).Inc()
}

func (m *Metrics) IncrementTransitions() {
	m.Transitions.Inc()
}

func (m *Metrics) SetHealthScore(score int) {
	m.HealthScore.Set(float64(score))
}

func (m *Metrics) SetProgress(schedule, migration float64) {
	m.ScheduleProgress.Set(schedule)
	m.MigrationProgress.Set(migration)
}

func (m *Metrics) SetFinalized(done bool) {
	if done {
		m.Finalized.Set(1)
		return
	}
	m.Finalized.Set(0)
}

func (m *Metrics) SetRouted(subsystem string, routed bool) {
	if routed {
		m.Routed.WithLabelValues(subsystem).Set(1)
		return
	}
	m.Routed.WithLabelValues(subsystem).Set(0)
}

func (m *Metrics) ObserveTick(d time.Duration) {
	m.TickDuration.Observe(float64(d.Microseconds()) / 1000.0)
}
