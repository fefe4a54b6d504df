// Package state loads and checkpoints the migration's persisted snapshot:
// current phase, last rollback and the cleanup marker.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"handoff/internal/scheduler"
	"handoff/pkg/platform/sentinel"
)

// Persister wraps a Store with startup fallback and write-through checkpoints.
type Persister struct {
	store  Store
	plan   scheduler.Plan
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	last Snapshot
}

type Option func(*Persister)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Persister) {
		p.logger = logger
	}
}

// WithPlan validates loaded phases against plan instead of the default plan.
func WithPlan(plan scheduler.Plan) Option {
	return func(p *Persister) {
		p.plan = plan
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Persister) {
		p.now = now
	}
}

func NewPersister(store Store, opts ...Option) (*Persister, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	p := &Persister{
		store:  store,
		plan:   scheduler.DefaultPlan(),
		logger: slog.Default(),
		now:    time.Now,
		last:   Defaults(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Load returns the persisted snapshot. Missing, corrupt or unreadable state
// falls back to Defaults and never fails startup.
func (p *Persister) Load(ctx context.Context) Snapshot {
	snap, err := p.store.Load(ctx)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		p.logger.InfoContext(ctx, "no persisted migration state, starting from defaults")
		snap = Defaults()
	case err != nil:
		p.logger.WarnContext(ctx, "persisted migration state unreadable, falling back to defaults", "error", err)
		snap = Defaults()
	case p.plan.Index(snap.Phase) == -2:
		p.logger.WarnContext(ctx, "persisted migration state names an unknown phase, falling back to defaults",
			"phase", snap.Phase)
		snap = Defaults()
	default:
		p.logger.InfoContext(ctx, "loaded persisted migration state",
			"phase", snap.Phase,
			"rollbacks", snap.RollbackCount,
			"cleanup_completed", snap.CleanupCompleted(),
		)
	}
	p.mu.Lock()
	p.last = snap
	p.mu.Unlock()
	return snap
}

// Checkpoint applies update to the last known snapshot and saves it.
func (p *Persister) Checkpoint(ctx context.Context, update func(*Snapshot)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.last
	update(&next)
	next.SavedAt = p.now()
	if err := p.store.Save(ctx, next); err != nil {
		p.logger.ErrorContext(ctx, "failed to checkpoint migration state", "phase", next.Phase, "error", err)
		return fmt.Errorf("checkpoint migration state: %w", err)
	}
	p.last = next
	return nil
}

// Last returns the most recently loaded or saved snapshot.
func (p *Persister) Last() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
