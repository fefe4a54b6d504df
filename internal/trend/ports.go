package trend

import (
	"context"
	"time"

	"handoff/internal/flags"
	"handoff/internal/health"
	"handoff/internal/rollback"
	"handoff/pkg/platform/audit"
)

// HealthSource produces a health sample.
type HealthSource interface {
	CheckSystemHealth() health.Snapshot
}

// FlagView is the flag state the monitor reads to pick a recovery target.
type FlagView interface {
	SnapshotNow() flags.Snapshot
	LastEnabled() (flags.Subsystem, bool)
}

// Responder carries out recovery.
type Responder interface {
	RollbackSpecificService(ctx context.Context, sub flags.Subsystem, reason string) (rollback.Record, error)
	ExecuteEmergencyRollback(ctx context.Context, reason string) rollback.Record
	SetEmergencyFlag(ctx context.Context, reason string) rollback.Record
}

// Holder blocks forward rollout progress.
type Holder interface {
	Hold(ctx context.Context, reason string) bool
}

// HealthObserver receives every sample, e.g. the finalization gate tracking
// sustained health.
type HealthObserver interface {
	ObserveHealth(s health.Snapshot)
}

// Metrics records tick timing and the latest score.
type Metrics interface {
	ObserveTick(d time.Duration)
	SetHealthScore(score int)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
