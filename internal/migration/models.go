package migration

import (
	"time"

	"handoff/internal/finalize"
	"handoff/internal/flags"
	"handoff/internal/health"
	"handoff/internal/rollback"
	"handoff/internal/scheduler"
	"handoff/internal/telemetry"
)

// Status is the operator view of the whole migration.
type Status struct {
	Schedule      scheduler.Status   `json:"schedule"`
	Migration     telemetry.Status   `json:"migration"`
	Health        health.Snapshot    `json:"health"`
	Band          health.Band        `json:"band"`
	Flags         flags.Snapshot     `json:"flags"`
	Rollbacks     int                `json:"rollbacks"`
	LastRollback  *rollback.Record   `json:"last_rollback,omitempty"`
	OpenEmergency bool               `json:"open_emergency"`
	Readiness     finalize.Readiness `json:"readiness"`
	FinalizedAt   time.Time          `json:"finalized_at,omitzero"`
}

// Finalized reports whether legacy access has been disabled for good.
func (s Status) Finalized() bool {
	return !s.FinalizedAt.IsZero()
}

// History bundles every recorded trail.
type History struct {
	Transitions []scheduler.Transition `json:"transitions"`
	Rollbacks   []rollback.Record      `json:"rollbacks"`
	FlagChanges []flags.Change         `json:"flag_changes"`
}
