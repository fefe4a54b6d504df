// Package finalize disables legacy access for good once the migration has
// been complete, safe and excellent for long enough.
package finalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"handoff/internal/health"
	dErrors "handoff/pkg/domain-errors"
	"handoff/pkg/platform/audit"
	"handoff/pkg/requestcontext"
)

var tracer = otel.Tracer("handoff.finalize")

// DefaultSustain is how long health must stay excellent before finalizing.
const DefaultSustain = 10 * time.Minute

// Readiness is the precondition check.
type Readiness struct {
	Ready        bool          `json:"ready"`
	Progress     float64       `json:"progress"`
	Safe         bool          `json:"safe"`
	Score        int           `json:"score"`
	SustainedFor time.Duration `json:"sustained_for"`
	Required     time.Duration `json:"required"`
	Blockers     []string      `json:"blockers,omitempty"`
}

// Result reports a finalization attempt.
type Result struct {
	AlreadyDone bool            `json:"already_done"`
	CompletedAt time.Time       `json:"completed_at"`
	Final       health.Snapshot `json:"final"`
}

// Gate is the finalization gate. It learns sustained health from samples fed
// by the trend monitor through ObserveHealth.
type Gate struct {
	migration MigrationView
	health    HealthSource
	flags     FlagState
	publisher AuditPublisher
	sustain   time.Duration
	threshold int
	logger    *slog.Logger
	now       func() time.Time

	mu             sync.Mutex
	excellentSince time.Time
	completedAt    time.Time
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithSustain sets how long health must stay at or above the threshold.
func WithSustain(d time.Duration) Option {
	return func(g *Gate) {
		g.sustain = d
	}
}

// WithThreshold overrides the excellent score required.
func WithThreshold(score int) Option {
	return func(g *Gate) {
		g.threshold = score
	}
}

// WithCompleted marks the gate as already finalized, e.g. from persisted state.
func WithCompleted(at time.Time) Option {
	return func(g *Gate) {
		g.completedAt = at
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(g *Gate) {
		g.publisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

func New(migration MigrationView, src HealthSource, state FlagState, opts ...Option) (*Gate, error) {
	if migration == nil || src == nil || state == nil {
		return nil, fmt.Errorf("migration view, health source and flag state are required")
	}
	g := &Gate{
		migration: migration,
		health:    src,
		flags:     state,
		sustain:   DefaultSustain,
		threshold: health.ExcellentThreshold,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ObserveHealth tracks how long the score has stayed at or above threshold.
func (g *Gate) ObserveHealth(s health.Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s.Score < g.threshold {
		g.excellentSince = time.Time{}
		return
	}
	if g.excellentSince.IsZero() {
		at := s.Timestamp
		if at.IsZero() {
			at = g.now()
		}
		g.excellentSince = at
	}
}

// Completed returns when finalization happened.
func (g *Gate) Completed() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completedAt, !g.completedAt.IsZero()
}

// Check evaluates the preconditions without acting.
func (g *Gate) Check() Readiness {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkLocked()
}

func (g *Gate) checkLocked() Readiness {
	r := Readiness{
		Progress: g.migration.MigrationProgress(),
		Safe:     g.migration.IsSafe(),
		Score:    g.health.CheckSystemHealth().Score,
		Required: g.sustain,
	}
	if !g.excellentSince.IsZero() {
		r.SustainedFor = g.now().Sub(g.excellentSince)
	}
	if r.Progress < 100 {
		r.Blockers = append(r.Blockers, fmt.Sprintf("migration progress %.0f%% < 100%%", r.Progress))
	}
	if !r.Safe {
		r.Blockers = append(r.Blockers, "migration is not safe")
	}
	if r.Score < g.threshold {
		r.Blockers = append(r.Blockers, fmt.Sprintf("health %d < %d", r.Score, g.threshold))
	}
	if g.excellentSince.IsZero() || r.SustainedFor < g.sustain {
		r.Blockers = append(r.Blockers, fmt.Sprintf("health sustained %s of %s", r.SustainedFor.Round(time.Second), g.sustain))
	}
	r.Ready = len(r.Blockers) == 0
	return r
}

// Finalize disables legacy access and writes the completion marker. A second
// call after success reports AlreadyDone. If the final health check fails
// the prior flags are restored and the gate stays open.
func (g *Gate) Finalize(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "finalize.Finalize")
	defer span.End()

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.completedAt.IsZero() {
		g.logger.InfoContext(ctx, "finalization already completed", "completed_at", g.completedAt)
		return Result{AlreadyDone: true, CompletedAt: g.completedAt}, nil
	}

	ready := g.checkLocked()
	if !ready.Ready {
		reason := strings.Join(ready.Blockers, "; ")
		g.logger.InfoContext(ctx, "finalization preconditions not met", "blockers", ready.Blockers)
		return Result{}, dErrors.New(dErrors.CodeConflict, "cannot finalize: "+reason)
	}

	prev := g.flags.SnapshotNow()
	next := prev.Clone()
	next.LegacyAccessDisabled = true
	next.WarningsEnabled = true
	g.flags.ApplySnapshot(next)

	final := g.health.CheckSystemHealth()
	span.SetAttributes(attribute.Int("finalize.score", final.Score))
	if !final.IsHealthy || !g.migration.IsSafe() {
		g.flags.ApplySnapshot(prev)
		reason := fmt.Sprintf("final health check failed: score %d, issues %v", final.Score, final.Classes())
		g.logger.WarnContext(ctx, "finalization aborted, flags restored", "score", final.Score, "issues", final.Classes())
		g.emit(ctx, audit.EventFinalizationFailed, final.Score, reason)
		return Result{Final: final}, dErrors.New(dErrors.CodeInvariantViolation, reason)
	}

	g.completedAt = g.now()
	g.logger.InfoContext(ctx, "migration finalized, legacy access disabled",
		"score", final.Score,
		"sustained_for", ready.SustainedFor,
	)
	g.emit(ctx, audit.EventFinalized, final.Score, "legacy access disabled")
	return Result{CompletedAt: g.completedAt, Final: final}, nil
}

func (g *Gate) emit(ctx context.Context, action audit.AuditEvent, score int, reason string) {
	if g.publisher == nil {
		return
	}
	err := g.publisher.Emit(ctx, audit.Event{
		Action:    string(action),
		Reason:    reason,
		Score:     score,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.ActorID(ctx),
	})
	if err != nil {
		g.logger.WarnContext(ctx, "failed to emit finalization audit event", "error", err)
	}
}
