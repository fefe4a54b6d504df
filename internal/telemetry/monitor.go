package telemetry

import (
	"slices"

	"handoff/internal/flags"
)

// SnapshotSource exposes the live flag snapshot.
type SnapshotSource interface {
	SnapshotNow() flags.Snapshot
}

// EmergencyLog reports unresolved emergencies raised by the rollback path.
type EmergencyLog interface {
	HasOpenEmergency() bool
}

// Monitor derives progress and safety from flag state. Usage counters are
// diagnostic only; a subsystem can be routed yet momentarily unexercised.
type Monitor struct {
	flags       SnapshotSource
	emergencies EmergencyLog
	subsystems  []flags.Subsystem
}

type MonitorOption func(*Monitor)

// WithSubsystems overrides the tracked subsystem set.
func WithSubsystems(subs ...flags.Subsystem) MonitorOption {
	return func(m *Monitor) {
		m.subsystems = subs
	}
}

// NewMonitor creates a monitor. emergencies may be nil when no rollback
// service is wired.
func NewMonitor(src SnapshotSource, emergencies EmergencyLog, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		flags:       src,
		emergencies: emergencies,
		subsystems:  flags.Subsystems(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subsystems returns the tracked subsystem set.
func (m *Monitor) Subsystems() []flags.Subsystem {
	return slices.Clone(m.subsystems)
}

// MigrationProgress is the percentage of tracked subsystems routed to the registry.
func (m *Monitor) MigrationProgress() float64 {
	return progressOf(m.flags.SnapshotNow(), m.subsystems)
}

// IsSafe is true when the registry is on, flags are coherent and no
// emergency is open.
func (m *Monitor) IsSafe() bool {
	return safe(m.flags.SnapshotNow(), m.emergencies)
}

// Status evaluates progress and safety against one snapshot.
func (m *Monitor) Status() Status {
	snap := m.flags.SnapshotNow()
	st := Status{
		MigrationProgress: progressOf(snap, m.subsystems),
		Safe:              safe(snap, m.emergencies),
		Problems:          flags.Validate(snap),
	}
	for _, sub := range m.subsystems {
		if snap.Routes(sub) {
			st.Routed = append(st.Routed, sub)
		} else {
			st.Pending = append(st.Pending, sub)
		}
	}
	return st
}

func progressOf(snap flags.Snapshot, subs []flags.Subsystem) float64 {
	if len(subs) == 0 {
		return 0
	}
	routed := 0
	for _, sub := range subs {
		if snap.Routes(sub) {
			routed++
		}
	}
	return float64(routed) / float64(len(subs)) * 100
}

func safe(snap flags.Snapshot, emergencies EmergencyLog) bool {
	if !snap.RegistryEnabled || snap.Inconsistent() {
		return false
	}
	return emergencies == nil || !emergencies.HasOpenEmergency()
}
