package flags

import (
	"fmt"
	"maps"
	"slices"
)

// Snapshot is a complete, immutable-by-convention flag set. Snapshots are
// copied on every read and write so holders never share the subsystem map.
type Snapshot struct {
	RegistryEnabled      bool               `json:"registry_enabled" yaml:"registry_enabled"`
	LegacyAccessDisabled bool               `json:"legacy_access_disabled" yaml:"legacy_access_disabled"`
	WarningsEnabled      bool               `json:"warnings_enabled" yaml:"warnings_enabled"`
	MonitoringEnabled    bool               `json:"monitoring_enabled" yaml:"monitoring_enabled"`
	AutoRollbackEnabled  bool               `json:"auto_rollback_enabled" yaml:"auto_rollback_enabled"`
	UseRegistryFor       map[Subsystem]bool `json:"use_registry_for" yaml:"use_registry_for"`
}

// Defaults is the conservative startup state: registry disabled, legacy
// allowed, monitoring off, no subsystem routed to the registry.
func Defaults() Snapshot {
	return Snapshot{UseRegistryFor: map[Subsystem]bool{}}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.UseRegistryFor = make(map[Subsystem]bool, len(s.UseRegistryFor))
	maps.Copy(out.UseRegistryFor, s.UseRegistryFor)
	return out
}

// UseRegistry reports the raw per-subsystem flag.
func (s Snapshot) UseRegistry(sub Subsystem) bool {
	return s.UseRegistryFor[sub]
}

// Routes reports whether calls for sub actually go to the registry.
func (s Snapshot) Routes(sub Subsystem) bool {
	return s.RegistryEnabled && s.UseRegistryFor[sub]
}

// Enabled lists subsystems whose flag is on, in rollout order.
func (s Snapshot) Enabled() []Subsystem {
	out := make([]Subsystem, 0, len(s.UseRegistryFor))
	for sub, on := range s.UseRegistryFor {
		if on {
			out = append(out, sub)
		}
	}
	slices.SortFunc(out, func(a, b Subsystem) int {
		return rolloutIndex(a) - rolloutIndex(b)
	})
	return out
}

// Equal compares two snapshots, treating missing subsystem keys as false.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.RegistryEnabled != o.RegistryEnabled ||
		s.LegacyAccessDisabled != o.LegacyAccessDisabled ||
		s.WarningsEnabled != o.WarningsEnabled ||
		s.MonitoringEnabled != o.MonitoringEnabled ||
		s.AutoRollbackEnabled != o.AutoRollbackEnabled {
		return false
	}
	return slices.Equal(s.Enabled(), o.Enabled())
}

// Inconsistent reports flag combinations that cannot route correctly.
func (s Snapshot) Inconsistent() bool {
	if s.RegistryEnabled {
		return false
	}
	return s.LegacyAccessDisabled || len(s.Enabled()) > 0
}

// Validate lists human readable configuration problems. An empty result
// means the snapshot is coherent.
func Validate(s Snapshot) []string {
	var problems []string
	if !s.RegistryEnabled {
		for _, sub := range s.Enabled() {
			problems = append(problems, fmt.Sprintf("%s routes to the registry while the registry is disabled", sub))
		}
		if s.LegacyAccessDisabled {
			problems = append(problems, "legacy access disabled while the registry is disabled")
		}
	}
	if s.LegacyAccessDisabled && !s.WarningsEnabled {
		problems = append(problems, "legacy access disabled with deprecation warnings off")
	}
	for sub := range s.UseRegistryFor {
		if !sub.IsValid() {
			problems = append(problems, fmt.Sprintf("unknown subsystem %q", sub))
		}
	}
	return problems
}
