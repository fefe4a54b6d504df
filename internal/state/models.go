package state

import (
	"time"

	"handoff/internal/scheduler"
)

// Snapshot is the persisted key/value record that survives restarts.
type Snapshot struct {
	Phase              scheduler.PhaseID `json:"phase"`
	ScheduleStartedAt  time.Time         `json:"schedule_started_at,omitzero"`
	LastRollbackAt     time.Time         `json:"last_rollback_at,omitzero"`
	LastRollbackReason string            `json:"last_rollback_reason,omitempty"`
	RollbackCount      int               `json:"rollback_count"`
	CleanupCompletedAt time.Time         `json:"cleanup_completed_at,omitzero"`
	SavedAt            time.Time         `json:"saved_at,omitzero"`
}

// Defaults is the state of a fresh install.
func Defaults() Snapshot {
	return Snapshot{Phase: scheduler.PhaseNotStarted}
}

// CleanupCompleted reports whether the finalization marker is set.
func (s Snapshot) CleanupCompleted() bool {
	return !s.CleanupCompletedAt.IsZero()
}
