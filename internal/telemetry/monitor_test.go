package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"handoff/internal/flags"
)

type openEmergency bool

func (e openEmergency) HasOpenEmergency() bool { return bool(e) }

func TestMonitor(t *testing.T) {
	t.Run("defaults are zero progress and unsafe", func(t *testing.T) {
		m := NewMonitor(flags.New(), nil)
		assert.Equal(t, 0.0, m.MigrationProgress())
		assert.False(t, m.IsSafe())
	})

	t.Run("progress counts routed subsystems only", func(t *testing.T) {
		state := flags.New()
		state.SetRegistryEnabled(true)
		state.SetUseRegistry(flags.SubsystemAudio, true)
		state.SetUseRegistry(flags.SubsystemSpatialAudio, true)
		m := NewMonitor(state, openEmergency(false))

		assert.InDelta(t, 40.0, m.MigrationProgress(), 0.001)
		assert.True(t, m.IsSafe())

		st := m.Status()
		assert.Equal(t, []flags.Subsystem{flags.SubsystemAudio, flags.SubsystemSpatialAudio}, st.Routed)
		assert.Len(t, st.Pending, 3)
	})

	t.Run("flags on while registry disabled do not count", func(t *testing.T) {
		state := flags.New()
		state.SetUseRegistry(flags.SubsystemAudio, true)
		m := NewMonitor(state, nil)
		assert.Equal(t, 0.0, m.MigrationProgress())
		assert.False(t, m.IsSafe())
		assert.NotEmpty(t, m.Status().Problems)
	})

	t.Run("all subsystems routed is 100", func(t *testing.T) {
		state := flags.New()
		state.SetRegistryEnabled(true)
		for _, sub := range flags.Subsystems() {
			state.SetUseRegistry(sub, true)
		}
		assert.Equal(t, 100.0, NewMonitor(state, nil).MigrationProgress())
	})

	t.Run("open emergency makes it unsafe", func(t *testing.T) {
		state := flags.New()
		state.SetRegistryEnabled(true)
		assert.False(t, NewMonitor(state, openEmergency(true)).IsSafe())
	})

	t.Run("custom subsystem set", func(t *testing.T) {
		state := flags.New()
		state.SetRegistryEnabled(true)
		state.SetUseRegistry(flags.SubsystemEffects, true)
		m := NewMonitor(state, nil, WithSubsystems(flags.SubsystemEffects, flags.SubsystemAudio))
		assert.Equal(t, 50.0, m.MigrationProgress())
	})
}
