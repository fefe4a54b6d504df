package admin

import (
	"strings"

	"handoff/internal/flags"
	"handoff/internal/scheduler"
	dErrors "handoff/pkg/domain-errors"
)

// ReasonRequest carries the operator's justification for an action.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// reasonOr returns the trimmed reason, or def when none was given.
func (r ReasonRequest) reasonOr(def string) string {
	if v := strings.TrimSpace(r.Reason); v != "" {
		return v
	}
	return def
}

type AdvanceToRequest struct {
	Phase string `json:"phase"`
}

func (r AdvanceToRequest) Validate() (scheduler.PhaseID, error) {
	phase := strings.ToLower(strings.TrimSpace(r.Phase))
	if phase == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "phase is required")
	}
	return scheduler.PhaseID(phase), nil
}

type RollbackServiceRequest struct {
	Subsystem string `json:"subsystem"`
	Reason    string `json:"reason"`
}

func (r RollbackServiceRequest) Validate() (flags.Subsystem, error) {
	if strings.TrimSpace(r.Subsystem) == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "subsystem is required")
	}
	return flags.ParseSubsystem(r.Subsystem)
}
