package flags

import (
	"fmt"
	"slices"
	"strings"

	dErrors "handoff/pkg/domain-errors"
)

// Subsystem names a migrated service kind.
type Subsystem string

const (
	SubsystemAudio        Subsystem = "audio"
	SubsystemSpatialAudio Subsystem = "spatial-audio"
	SubsystemStealthAudio Subsystem = "stealth-audio"
	SubsystemEffects      Subsystem = "effects"
	SubsystemAudioUpdate  Subsystem = "audio-update"
)

// rolloutOrder is the order in which subsystems move to the registry.
var rolloutOrder = []Subsystem{
	SubsystemAudio,
	SubsystemSpatialAudio,
	SubsystemStealthAudio,
	SubsystemEffects,
	SubsystemAudioUpdate,
}

// Subsystems returns every tracked subsystem in rollout order.
func Subsystems() []Subsystem {
	return slices.Clone(rolloutOrder)
}

// IsValid reports whether s is a tracked subsystem.
func (s Subsystem) IsValid() bool {
	return slices.Contains(rolloutOrder, s)
}

func (s Subsystem) String() string {
	return string(s)
}

// ParseSubsystem accepts a subsystem name case-insensitively.
func ParseSubsystem(raw string) (Subsystem, error) {
	s := Subsystem(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("unknown subsystem %q", raw))
	}
	return s, nil
}

// rolloutIndex orders subsystems; unknown names sort last.
func rolloutIndex(s Subsystem) int {
	if i := slices.Index(rolloutOrder, s); i >= 0 {
		return i
	}
	return len(rolloutOrder)
}
