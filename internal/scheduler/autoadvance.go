package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dErrors "handoff/pkg/domain-errors"
)

// Advancer is the slice of the scheduler the auto-advance driver uses.
type Advancer interface {
	CurrentStatus() Status
	AdvanceToNextPhase(ctx context.Context) (Status, error)
}

// AutoAdvancer moves the schedule forward one phase per day once started.
// It never starts a schedule and never advances while a hold is active.
type AutoAdvancer struct {
	target   Advancer
	day      time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type AutoOption func(*AutoAdvancer)

func WithAutoLogger(logger *slog.Logger) AutoOption {
	return func(a *AutoAdvancer) {
		a.logger = logger
	}
}

// WithAutoInterval sets how often the driver checks the schedule.
func WithAutoInterval(d time.Duration) AutoOption {
	return func(a *AutoAdvancer) {
		a.interval = d
	}
}

func WithAutoClock(now func() time.Time) AutoOption {
	return func(a *AutoAdvancer) {
		a.now = now
	}
}

// NewAutoAdvancer creates a driver advancing every day.
func NewAutoAdvancer(target Advancer, day time.Duration, opts ...AutoOption) (*AutoAdvancer, error) {
	if target == nil {
		return nil, fmt.Errorf("advancer is required")
	}
	if day <= 0 {
		return nil, fmt.Errorf("day duration must be positive")
	}
	a := &AutoAdvancer{
		target:   target,
		day:      day,
		interval: time.Minute,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.interval > day {
		a.interval = day
	}
	return a, nil
}

// Run checks the schedule every interval until ctx is cancelled.
func (a *AutoAdvancer) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

// Tick advances if a day has passed since the last transition. It reports
// whether the schedule moved.
func (a *AutoAdvancer) Tick(ctx context.Context) bool {
	st := a.target.CurrentStatus()
	if st.Phase == PhaseNotStarted || st.Phase == PhaseCompleted {
		return false
	}
	if st.Held {
		a.logger.DebugContext(ctx, "auto-advance blocked by hold", "phase", st.Phase, "reason", st.HoldReason)
		return false
	}
	if a.now().Sub(st.LastTransition) < a.day {
		return false
	}
	next, err := a.target.AdvanceToNextPhase(ctx)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return false
		}
		a.logger.ErrorContext(ctx, "auto-advance failed", "phase", st.Phase, "error", err)
		return false
	}
	a.logger.InfoContext(ctx, "auto-advanced migration phase", "from", st.Phase, "to", next.Phase)
	return next.Phase != st.Phase
}
