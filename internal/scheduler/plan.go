package scheduler

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"handoff/internal/flags"
	dErrors "handoff/pkg/domain-errors"
)

// PhaseID names a rollout phase.
type PhaseID string

const (
	PhaseNotStarted PhaseID = "not_started"
	PhaseDay1       PhaseID = "day1"
	PhaseDay2       PhaseID = "day2"
	PhaseDay3       PhaseID = "day3"
	PhaseDay4       PhaseID = "day4"
	PhaseDay5       PhaseID = "day5"
	PhaseCompleted  PhaseID = "completed"
)

// Phase is one step of the rollout and the flags it applies.
type Phase struct {
	ID          PhaseID        `yaml:"id" json:"id"`
	Day         int            `yaml:"day" json:"day"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Flags       flags.Snapshot `yaml:"flags" json:"flags"`
}

// Plan is the ordered list of phases after NotStarted. The last phase must
// be PhaseCompleted.
type Plan struct {
	Phases []Phase `yaml:"phases" json:"phases"`
}

func routed(subs ...flags.Subsystem) map[flags.Subsystem]bool {
	out := make(map[flags.Subsystem]bool, len(subs))
	for _, s := range subs {
		out[s] = true
	}
	return out
}

// DefaultPlan is the five-day rollout.
func DefaultPlan() Plan {
	staging := func(subs ...flags.Subsystem) flags.Snapshot {
		return flags.Snapshot{
			RegistryEnabled:     true,
			WarningsEnabled:     true,
			MonitoringEnabled:   true,
			AutoRollbackEnabled: true,
			UseRegistryFor:      routed(subs...),
		}
	}
	day4 := staging(flags.SubsystemAudio, flags.SubsystemSpatialAudio, flags.SubsystemStealthAudio)
	day4.LegacyAccessDisabled = true
	day5 := staging(flags.Subsystems()...)
	day5.LegacyAccessDisabled = true

	return Plan{Phases: []Phase{
		{
			ID: PhaseDay1, Day: 1,
			Name:        "Warnings Enabled",
			Description: "Deprecation warnings on every legacy singleton access; routing unchanged.",
			Flags:       flags.Snapshot{WarningsEnabled: true, UseRegistryFor: map[flags.Subsystem]bool{}},
		},
		{
			ID: PhaseDay2, Day: 2,
			Name:        "Registry Staging",
			Description: "Registry enabled with monitoring and auto-rollback; audio resolves through the registry.",
			Flags:       staging(flags.SubsystemAudio),
		},
		{
			ID: PhaseDay3, Day: 3,
			Name:        "Spatial Audio Migration",
			Description: "Spatial audio joins audio on the registry.",
			Flags:       staging(flags.SubsystemAudio, flags.SubsystemSpatialAudio),
		},
		{
			ID: PhaseDay4, Day: 4,
			Name:        "Legacy Disabled",
			Description: "Stealth audio migrated; legacy singleton access disabled.",
			Flags:       day4,
		},
		{
			ID: PhaseDay5, Day: 5,
			Name:        "Full Migration",
			Description: "Every subsystem resolves through the registry.",
			Flags:       day5,
		},
		{
			ID: PhaseCompleted, Day: 5,
			Name:        "Completed",
			Description: "Rollout complete; eligible for finalization.",
			Flags:       day5.Clone(),
		},
	}}
}

// ParsePlan decodes and validates a YAML plan.
func ParsePlan(data []byte) (Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, dErrors.Wrap(err, dErrors.CodeInvalidArgument, "decode phase plan")
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// LoadPlan reads a YAML plan file.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read phase plan %s: %w", path, err)
	}
	return ParsePlan(data)
}

// Validate checks ordering constraints.
func (p Plan) Validate() error {
	if len(p.Phases) < 2 {
		return dErrors.New(dErrors.CodeInvalidArgument, "plan needs at least one phase before completed")
	}
	seen := make(map[PhaseID]bool, len(p.Phases))
	for i, ph := range p.Phases {
		switch {
		case ph.ID == "":
			return dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("phase %d has no id", i))
		case ph.ID == PhaseNotStarted:
			return dErrors.New(dErrors.CodeInvalidArgument, "not_started is implicit and cannot be listed")
		case seen[ph.ID]:
			return dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("duplicate phase %s", ph.ID))
		case ph.ID == PhaseCompleted && i != len(p.Phases)-1:
			return dErrors.New(dErrors.CodeInvalidArgument, "completed must be the last phase")
		}
		seen[ph.ID] = true
		for sub := range ph.Flags.UseRegistryFor {
			if !sub.IsValid() {
				return dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("phase %s names unknown subsystem %q", ph.ID, sub))
			}
		}
	}
	if p.Phases[len(p.Phases)-1].ID != PhaseCompleted {
		return dErrors.New(dErrors.CodeInvalidArgument, "plan must end with completed")
	}
	return nil
}

// Index returns the position of id: -1 for NotStarted, -2 if unknown.
func (p Plan) Index(id PhaseID) int {
	if id == PhaseNotStarted {
		return -1
	}
	if i := slices.IndexFunc(p.Phases, func(ph Phase) bool { return ph.ID == id }); i >= 0 {
		return i
	}
	return -2
}

// Phase looks up a phase by id.
func (p Plan) Phase(id PhaseID) (Phase, bool) {
	i := p.Index(id)
	if i < 0 {
		return Phase{}, false
	}
	return p.Phases[i], true
}

// Progress maps a phase to [0,100]: NotStarted is 0, Completed is 100 and
// the k-th working phase is k over the number of working phases.
func (p Plan) Progress(id PhaseID) float64 {
	i := p.Index(id)
	switch {
	case i < 0:
		return 0
	case id == PhaseCompleted:
		return 100
	}
	steps := len(p.Phases) - 1
	return float64(i+1) / float64(steps) * 100
}
