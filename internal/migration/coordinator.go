// Package migration is the operator surface over the rollout: it sequences
// the scheduler, rollback service and finalization gate, checkpoints the
// persisted state after every significant transition and keeps the
// progress gauges current.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"handoff/internal/finalize"
	"handoff/internal/flags"
	"handoff/internal/health"
	"handoff/internal/rollback"
	"handoff/internal/scheduler"
	"handoff/internal/state"
	"handoff/internal/telemetry"
	dErrors "handoff/pkg/domain-errors"
	"handoff/pkg/platform/audit"
)

var tracer = otel.Tracer("handoff.migration")

// Deps are the collaborators a Coordinator sequences. All are required.
type Deps struct {
	Flags     *flags.State
	Scheduler *scheduler.Scheduler
	Rollback  *rollback.Service
	Health    *health.Checker
	Usage     *telemetry.Recorder
	Monitor   *telemetry.Monitor
	Gate      *finalize.Gate
	State     *state.Persister
}

func (d Deps) validate() error {
	switch {
	case d.Flags == nil:
		return fmt.Errorf("flag state is required")
	case d.Scheduler == nil:
		return fmt.Errorf("scheduler is required")
	case d.Rollback == nil:
		return fmt.Errorf("rollback service is required")
	case d.Health == nil:
		return fmt.Errorf("health checker is required")
	case d.Usage == nil:
		return fmt.Errorf("usage recorder is required")
	case d.Monitor == nil:
		return fmt.Errorf("migration monitor is required")
	case d.Gate == nil:
		return fmt.Errorf("finalization gate is required")
	case d.State == nil:
		return fmt.Errorf("state persister is required")
	}
	return nil
}

// Coordinator serializes operator and monitor actions. It satisfies the
// trend monitor's responder and holder ports and the auto-advancer's target,
// so automated actions are checkpointed the same way manual ones are.
type Coordinator struct {
	deps    Deps
	metrics Metrics
	trail   AuditTrail
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex

	// reported is the last score logged at info; -1 before the first check.
	reported atomic.Int64
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = metrics
	}
}

// WithAuditTrail exposes recorded audit events through AuditTrail.
func WithAuditTrail(trail AuditTrail) Option {
	return func(c *Coordinator) {
		c.trail = trail
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

func New(deps Deps, opts ...Option) (*Coordinator, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	c := &Coordinator{
		deps:   deps,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reported.Store(-1)
	return c, nil
}

// RestorePersisted re-enters the persisted phase and seeds the rollback
// history so the recent-rollback penalty survives a restart. The gate's
// completion marker is passed to finalize.New separately.
func (c *Coordinator) RestorePersisted(ctx context.Context, snap state.Snapshot) error {
	ctx, span := tracer.Start(ctx, "migration.RestorePersisted",
		trace.WithAttributes(attribute.String("migration.phase", string(snap.Phase))))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if snap.Phase != "" && snap.Phase != scheduler.PhaseNotStarted {
		if err := c.deps.Scheduler.Restore(ctx, snap.Phase, snap.ScheduleStartedAt); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInconsistentConfiguration, "restore persisted phase")
		}
	}
	if !snap.LastRollbackAt.IsZero() {
		c.deps.Rollback.Log().Seed(rollback.Record{
			ID:        uuid.New(),
			Timestamp: snap.LastRollbackAt,
			Reason:    snap.LastRollbackReason,
			Scope:     rollback.ScopeGlobal,
			Resolved:  true,
		})
	}
	c.logger.InfoContext(ctx, "migration state restored",
		"phase", snap.Phase,
		"rollbacks", snap.RollbackCount,
		"finalized", snap.CleanupCompleted(),
	)
	c.refreshLocked()
	return nil
}

// StartSchedule enters the first phase.
func (c *Coordinator) StartSchedule(ctx context.Context) (scheduler.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, err := c.deps.Scheduler.StartSchedule(ctx)
	if err != nil {
		return st, err
	}
	c.transitionedLocked(ctx, st)
	return st, nil
}

// AdvanceToNextPhase moves one phase forward.
func (c *Coordinator) AdvanceToNextPhase(ctx context.Context) (scheduler.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.deps.Scheduler.CurrentPhase()
	st, err := c.deps.Scheduler.AdvanceToNextPhase(ctx)
	if err != nil {
		return st, err
	}
	if st.Phase != before {
		c.transitionedLocked(ctx, st)
	}
	return st, nil
}

// AdvanceTo jumps forward to target.
func (c *Coordinator) AdvanceTo(ctx context.Context, target scheduler.PhaseID) (scheduler.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.deps.Scheduler.CurrentPhase()
	st, err := c.deps.Scheduler.AdvanceTo(ctx, target)
	if err != nil {
		return st, err
	}
	if st.Phase != before {
		c.transitionedLocked(ctx, st)
	}
	return st, nil
}

// ResetSchedule returns to NotStarted with default flags.
func (c *Coordinator) ResetSchedule(ctx context.Context) scheduler.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.deps.Scheduler.ResetSchedule(ctx)
	c.transitionedLocked(ctx, st)
	return st
}

// CurrentStatus returns the schedule status.
func (c *Coordinator) CurrentStatus() scheduler.Status {
	return c.deps.Scheduler.CurrentStatus()
}

// Hold blocks forward progress.
func (c *Coordinator) Hold(ctx context.Context, reason string) bool {
	return c.deps.Scheduler.Hold(ctx, reason)
}

// ReleaseHold lifts a hold.
func (c *Coordinator) ReleaseHold(ctx context.Context, reason string) bool {
	return c.deps.Scheduler.ReleaseHold(ctx, reason)
}

// ExecuteEmergencyRollback applies the safe snapshot and resets the schedule.
func (c *Coordinator) ExecuteEmergencyRollback(ctx context.Context, reason string) rollback.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.deps.Rollback.ExecuteEmergencyRollback(ctx, reason)
	c.rolledBackLocked(ctx, rec)
	return rec
}

// RollbackSpecificService turns one subsystem back to its legacy path.
func (c *Coordinator) RollbackSpecificService(ctx context.Context, sub flags.Subsystem, reason string) (rollback.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := c.deps.Rollback.RollbackSpecificService(ctx, sub, reason)
	if err != nil {
		return rec, err
	}
	c.rolledBackLocked(ctx, rec)
	return rec, nil
}

// RestoreFromRollback re-enables what the pending rollbacks disabled.
func (c *Coordinator) RestoreFromRollback(ctx context.Context, reason string) (rollback.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, err := c.deps.Rollback.RestoreFromRollback(ctx, reason)
	if err != nil {
		return rec, err
	}
	st := c.deps.Scheduler.CurrentStatus()
	c.checkpointLocked(ctx, func(s *state.Snapshot) {
		s.Phase = st.Phase
		s.ScheduleStartedAt = st.StartedAt
	})
	c.refreshLocked()
	return rec, nil
}

// SetEmergencyFlag records a critical condition without changing flags.
func (c *Coordinator) SetEmergencyFlag(ctx context.Context, reason string) rollback.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deps.Rollback.SetEmergencyFlag(ctx, reason)
}

// CheckSystemHealth runs a health check and publishes its score. The report
// is logged at info only when the score moved since the last one.
func (c *Coordinator) CheckSystemHealth(ctx context.Context) health.Snapshot {
	snap := c.deps.Health.CheckSystemHealth()
	if c.metrics != nil {
		c.metrics.SetHealthScore(snap.Score)
	}
	level := slog.LevelDebug
	if c.reported.Swap(int64(snap.Score)) != int64(snap.Score) {
		level = slog.LevelInfo
	}
	c.logger.Log(ctx, level, "health report",
		"score", snap.Score,
		"band", snap.Band(),
		"issues", snap.Classes(),
	)
	return snap
}

// Readiness evaluates the finalization preconditions.
func (c *Coordinator) Readiness() finalize.Readiness {
	return c.deps.Gate.Check()
}

// Finalize permanently disables legacy access when the gate allows it.
func (c *Coordinator) Finalize(ctx context.Context) (finalize.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.deps.Gate.Finalize(ctx)
	if err != nil || res.AlreadyDone {
		return res, err
	}
	c.checkpointLocked(ctx, func(s *state.Snapshot) {
		s.CleanupCompletedAt = res.CompletedAt
	})
	if c.metrics != nil {
		c.metrics.SetFinalized(true)
	}
	c.refreshLocked()
	return res, nil
}

// Status gathers the full operator view.
func (c *Coordinator) Status(ctx context.Context) Status {
	h := c.CheckSystemHealth(ctx)
	st := Status{
		Schedule:      c.deps.Scheduler.CurrentStatus(),
		Migration:     c.deps.Monitor.Status(),
		Health:        h,
		Band:          h.Band(),
		Flags:         c.deps.Flags.SnapshotNow(),
		Rollbacks:     c.rollbackCount(),
		OpenEmergency: c.deps.Rollback.Log().HasOpenEmergency(),
		Readiness:     c.deps.Gate.Check(),
	}
	if last, ok := c.deps.Rollback.Log().Last(); ok {
		st.LastRollback = &last
	}
	if at, ok := c.deps.Gate.Completed(); ok {
		st.FinalizedAt = at
	}
	return st
}

// History returns the transition, rollback and flag change trails.
func (c *Coordinator) History() History {
	return History{
		Transitions: c.deps.Scheduler.Transitions(),
		Rollbacks:   c.deps.Rollback.History(),
		FlagChanges: c.deps.Flags.History(),
	}
}

// Usage returns per subsystem access statistics.
func (c *Coordinator) Usage() []telemetry.UsageStats {
	return c.deps.Usage.AllStats()
}

// RecentUsage returns the most recent access events, oldest first.
func (c *Coordinator) RecentUsage() []telemetry.UsageEvent {
	return c.deps.Usage.RecentEvents()
}

// ResetUsage clears access statistics.
func (c *Coordinator) ResetUsage(ctx context.Context) {
	c.deps.Usage.ResetStatistics()
	c.logger.InfoContext(ctx, "usage statistics reset")
}

// AuditTrail lists recent audit events, or CodeUnavailable when no trail is
// configured.
func (c *Coordinator) AuditTrail(ctx context.Context, limit int) ([]audit.Event, error) {
	if c.trail == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "audit trail is not configured")
	}
	events, err := c.trail.List(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list audit events")
	}
	return events, nil
}

func (c *Coordinator) rollbackCount() int {
	return max(c.deps.State.Last().RollbackCount, c.deps.Rollback.Log().Count())
}

func (c *Coordinator) transitionedLocked(ctx context.Context, st scheduler.Status) {
	c.checkpointLocked(ctx, func(s *state.Snapshot) {
		s.Phase = st.Phase
		s.ScheduleStartedAt = st.StartedAt
	})
	if c.metrics != nil {
		c.metrics.IncrementTransitions()
	}
	c.refreshLocked()
}

func (c *Coordinator) rolledBackLocked(ctx context.Context, rec rollback.Record) {
	phase := c.deps.Scheduler.CurrentStatus()
	c.checkpointLocked(ctx, func(s *state.Snapshot) {
		s.Phase = phase.Phase
		s.ScheduleStartedAt = phase.StartedAt
		s.LastRollbackAt = rec.Timestamp
		s.LastRollbackReason = rec.Reason
		s.RollbackCount++
	})
	if c.metrics != nil {
		c.metrics.IncrementRollback(string(rec.Scope))
	}
	c.refreshLocked()
}

// checkpointLocked persists update. A failed save is logged by the
// persister and never fails the operation that triggered it.
func (c *Coordinator) checkpointLocked(ctx context.Context, update func(*state.Snapshot)) {
	_ = c.deps.State.Checkpoint(ctx, update)
}

func (c *Coordinator) refreshLocked() {
	if c.metrics == nil {
		return
	}
	c.metrics.SetProgress(c.deps.Scheduler.Progress(), c.deps.Monitor.MigrationProgress())
	_, done := c.deps.Gate.Completed()
	c.metrics.SetFinalized(done)
}
