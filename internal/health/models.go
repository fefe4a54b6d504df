package health

import (
	"slices"
	"time"

	"handoff/internal/flags"
)

const (
	// HealthyThreshold is the pass/fail boundary used by automation.
	HealthyThreshold = 70
	// ExcellentThreshold is the reporting band the finalization gate requires.
	ExcellentThreshold = 90
	// CriticalThreshold marks scores the trend monitor treats as an emergency.
	CriticalThreshold = 30
)

// IssueClass groups issues; each class costs its penalty once per check.
type IssueClass string

const (
	IssueInconsistentConfiguration IssueClass = "inconsistent_configuration"
	IssueMissingService            IssueClass = "missing_service"
	IssueRegistryDisabled          IssueClass = "registry_disabled"
	IssueUnresolvedEmergency       IssueClass = "unresolved_emergency"
	IssueRecentRollback            IssueClass = "recent_rollback"
	IssueWarningsSuppressed        IssueClass = "warnings_suppressed"
)

var penalties = map[IssueClass]int{
	IssueInconsistentConfiguration: 40,
	IssueMissingService:            25,
	IssueRegistryDisabled:          20,
	IssueUnresolvedEmergency:       20,
	IssueRecentRollback:            10,
	IssueWarningsSuppressed:        10,
}

// Penalty returns the score deduction for class.
func (c IssueClass) Penalty() int {
	return penalties[c]
}

// Issue is one finding.
type Issue struct {
	Class     IssueClass      `json:"class"`
	Subsystem flags.Subsystem `json:"subsystem,omitempty"`
	Detail    string          `json:"detail"`
}

// Band is a reporting bucket for a score.
type Band string

const (
	BandExcellent  Band = "excellent"
	BandAcceptable Band = "acceptable"
	BandPoor       Band = "poor"
)

// BandFor maps a score to its reporting band.
func BandFor(score int) Band {
	switch {
	case score >= ExcellentThreshold:
		return BandExcellent
	case score >= HealthyThreshold:
		return BandAcceptable
	default:
		return BandPoor
	}
}

// Snapshot is the immutable result of one health check.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Score     int       `json:"score"`
	Issues    []Issue   `json:"issues"`
	IsHealthy bool      `json:"is_healthy"`
}

// Band returns the reporting band.
func (s Snapshot) Band() Band {
	return BandFor(s.Score)
}

// Has reports whether an issue of class was found.
func (s Snapshot) Has(class IssueClass) bool {
	return slices.ContainsFunc(s.Issues, func(i Issue) bool { return i.Class == class })
}

// Classes returns the distinct issue classes in detection order.
func (s Snapshot) Classes() []IssueClass {
	var out []IssueClass
	for _, i := range s.Issues {
		if !slices.Contains(out, i.Class) {
			out = append(out, i.Class)
		}
	}
	return out
}
