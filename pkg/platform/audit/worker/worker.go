package worker

import (
	"context"
	"log/slog"

	audit "handoff/pkg/platform/audit"
)

// Worker copies audit events from a channel into a secondary store, so a
// slow sink (Kafka, Postgres) never blocks the primary publisher.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run forwards events until ctx is cancelled or the inbox is closed.
// Append failures are logged; the worker keeps going.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit forward failed", "action", event.Action, "error", err)
			}
		}
	}
}

// Tee is an audit.Store that appends to primary and offers each event to a
// worker inbox without blocking.
type Tee struct {
	primary audit.Store
	out     chan<- audit.Event
	logger  *slog.Logger
}

func NewTee(primary audit.Store, out chan<- audit.Event, logger *slog.Logger) *Tee {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tee{primary: primary, out: out, logger: logger}
}

func (t *Tee) Append(ctx context.Context, event audit.Event) error {
	if err := t.primary.Append(ctx, event); err != nil {
		return err
	}
	select {
	case t.out <- event:
	default:
		t.logger.WarnContext(ctx, "audit forward queue full, event kept in primary only", "action", event.Action)
	}
	return nil
}

func (t *Tee) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return t.primary.ListRecent(ctx, limit)
}
