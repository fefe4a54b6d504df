package finalize

import (
	"context"

	"handoff/internal/flags"
	"handoff/internal/health"
	"handoff/pkg/platform/audit"
)

// MigrationView reports routing progress and safety.
type MigrationView interface {
	MigrationProgress() float64
	IsSafe() bool
}

// HealthSource runs the final health check.
type HealthSource interface {
	CheckSystemHealth() health.Snapshot
}

// FlagState is rewritten when legacy access is disabled.
type FlagState interface {
	SnapshotNow() flags.Snapshot
	ApplySnapshot(snap flags.Snapshot)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
