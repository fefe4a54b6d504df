package trend

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handoff/internal/flags"
	"handoff/internal/health"
	"handoff/internal/rollback"
	"handoff/internal/scheduler"
	"handoff/internal/telemetry"
)

// A registry outage with two subsystems routed: the monitor isolates the most
// recent subsystem first, then rolls everything back on the next cycle.
func TestRecoveryAgainstRealComponents(t *testing.T) {
	ctx := context.Background()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	state := flags.New(flags.WithLogger(quiet))
	sched, err := scheduler.New(state, scheduler.WithLogger(quiet))
	require.NoError(t, err)
	rb, err := rollback.New(state, rollback.WithSchedule(sched), rollback.WithLogger(quiet))
	require.NoError(t, err)
	checker := health.NewChecker(state, health.WithRollbackLog(rb.Log()), health.WithLogger(quiet))
	safety := telemetry.NewMonitor(state, rb.Log())

	m, err := New(checker, state, rb, WithHolder(sched), WithLogger(quiet))
	require.NoError(t, err)

	state.ApplySnapshot(flags.Snapshot{
		RegistryEnabled:     true,
		WarningsEnabled:     true,
		MonitoringEnabled:   true,
		AutoRollbackEnabled: true,
		UseRegistryFor: map[flags.Subsystem]bool{
			flags.SubsystemAudio:        true,
			flags.SubsystemSpatialAudio: true,
		},
	})
	assert.Equal(t, ActionNone, m.Tick(ctx).Action)

	state.SetRegistryEnabled(false)
	require.False(t, safety.IsSafe())

	first := m.Tick(ctx)
	assert.Equal(t, ActionServiceRollback, first.Action)
	assert.Equal(t, flags.SubsystemSpatialAudio, first.Subsystem)
	assert.True(t, state.UseRegistry(flags.SubsystemAudio))
	assert.False(t, state.UseRegistry(flags.SubsystemSpatialAudio))
	assert.True(t, sched.Held())

	second := m.Tick(ctx)
	assert.Equal(t, ActionEmergencyRollback, second.Action)
	assert.True(t, safety.IsSafe())
	assert.GreaterOrEqual(t, checker.CheckSystemHealth().Score, health.HealthyThreshold)

	history := rb.History()
	require.Len(t, history, 2)
	assert.Equal(t, rollback.ScopeSubsystem, history[0].Scope)
	assert.Equal(t, rollback.ScopeGlobal, history[1].Scope)

	// the safe snapshot turns monitoring off
	assert.Equal(t, ActionSkipped, m.Tick(ctx).Action)
	assert.Len(t, m.History(), 4)
}
