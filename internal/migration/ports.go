package migration

import (
	"context"

	"handoff/pkg/platform/audit"
)

// Metrics receives coordinator level gauges and counters.
type Metrics interface {
	IncrementRollback(scope string)
	IncrementTransitions()
	SetHealthScore(score int)
	SetProgress(schedule, migration float64)
	SetFinalized(done bool)
}

// AuditTrail lists recently recorded audit events.
type AuditTrail interface {
	List(ctx context.Context, limit int) ([]audit.Event, error)
}
