package rollback

import (
	"time"

	"github.com/google/uuid"

	"handoff/internal/flags"
	"handoff/internal/scheduler"
)

// Scope says what a record applied to.
type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeSubsystem Scope = "subsystem"
	// ScopeRecovery marks an operator-confirmed restore.
	ScopeRecovery Scope = "recovery"
	// ScopeEmergency marks a critical condition that was flagged instead of
	// rolled back because auto-rollback was off.
	ScopeEmergency Scope = "emergency"
)

// Record is one entry in the rollback audit trail.
type Record struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Reason    string            `json:"reason"`
	Scope     Scope             `json:"scope"`
	Subsystem flags.Subsystem   `json:"subsystem,omitempty"`
	Previous  flags.Snapshot    `json:"previous"`
	Resulting flags.Snapshot    `json:"resulting"`
	Disabled  []flags.Subsystem `json:"disabled,omitempty"`
	Restored  []flags.Subsystem `json:"restored,omitempty"`
	// Phase is the schedule phase that was active before a global rollback.
	Phase    scheduler.PhaseID `json:"phase,omitempty"`
	Resolved bool              `json:"resolved"`
}

// IsRollback reports whether the record turned something off.
func (r Record) IsRollback() bool {
	return r.Scope == ScopeGlobal || r.Scope == ScopeSubsystem
}
