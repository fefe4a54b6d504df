package admin

import (
	"context"

	"handoff/internal/finalize"
	"handoff/internal/flags"
	"handoff/internal/health"
	"handoff/internal/migration"
	"handoff/internal/rollback"
	"handoff/internal/scheduler"
	"handoff/internal/telemetry"
	"handoff/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Service is the operator surface the admin API exposes.
type Service interface {
	Status(ctx context.Context) migration.Status
	Report(ctx context.Context) string
	History() migration.History
	CheckSystemHealth(ctx context.Context) health.Snapshot
	Readiness() finalize.Readiness
	Usage() []telemetry.UsageStats
	RecentUsage() []telemetry.UsageEvent
	ResetUsage(ctx context.Context)
	AuditTrail(ctx context.Context, limit int) ([]audit.Event, error)

	StartSchedule(ctx context.Context) (scheduler.Status, error)
	AdvanceToNextPhase(ctx context.Context) (scheduler.Status, error)
	AdvanceTo(ctx context.Context, target scheduler.PhaseID) (scheduler.Status, error)
	ResetSchedule(ctx context.Context) scheduler.Status
	CurrentStatus() scheduler.Status
	Hold(ctx context.Context, reason string) bool
	ReleaseHold(ctx context.Context, reason string) bool

	ExecuteEmergencyRollback(ctx context.Context, reason string) rollback.Record
	RollbackSpecificService(ctx context.Context, sub flags.Subsystem, reason string) (rollback.Record, error)
	RestoreFromRollback(ctx context.Context, reason string) (rollback.Record, error)
	SetEmergencyFlag(ctx context.Context, reason string) rollback.Record
	Finalize(ctx context.Context) (finalize.Result, error)
}
