package telemetry

import (
	"time"

	"handoff/internal/flags"
)

// AccessKind says which path served a call.
type AccessKind string

const (
	AccessLegacy   AccessKind = "legacy"
	AccessRegistry AccessKind = "registry"
)

// UsageEvent is one recorded access.
type UsageEvent struct {
	Subsystem flags.Subsystem `json:"subsystem"`
	Kind      AccessKind      `json:"kind"`
	Location  string          `json:"location"`
	At        time.Time       `json:"at"`
}

// UsageStats aggregates accesses for one subsystem.
type UsageStats struct {
	Subsystem     flags.Subsystem `json:"subsystem"`
	LegacyCount   uint64          `json:"legacy_count"`
	RegistryCount uint64          `json:"registry_count"`
	LastLocation  string          `json:"last_location,omitempty"`
	LastAccess    time.Time       `json:"last_access,omitzero"`
}

// Total returns all recorded accesses.
func (u UsageStats) Total() uint64 {
	return u.LegacyCount + u.RegistryCount
}

// LegacyShare is the fraction of accesses that went to the legacy path.
func (u UsageStats) LegacyShare() float64 {
	if u.Total() == 0 {
		return 0
	}
	return float64(u.LegacyCount) / float64(u.Total())
}

// Status is the monitor's summary of the rollout.
type Status struct {
	MigrationProgress float64           `json:"migration_progress"`
	Safe              bool              `json:"safe"`
	Routed            []flags.Subsystem `json:"routed"`
	Pending           []flags.Subsystem `json:"pending"`
	Problems          []string          `json:"problems,omitempty"`
}
