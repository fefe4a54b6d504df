// Package scheduler drives the rollout through an ordered set of phases.
//
// Every transition applies the target phase's flag snapshot in one atomic
// swap and records the transition. Moving backwards is only possible
// through ResetSchedule or a rollback.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"handoff/internal/flags"
	dErrors "handoff/pkg/domain-errors"
	"handoff/pkg/platform/audit"
	"handoff/pkg/requestcontext"
)

var tracer = otel.Tracer("handoff.scheduler")

// transitionLimit bounds the transition log.
const transitionLimit = 100

// FlagApplier receives phase snapshots.
type FlagApplier interface {
	ApplySnapshot(snap flags.Snapshot)
	ResetToDefaults()
}

// AuditPublisher records schedule events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Transition is one recorded phase change.
type Transition struct {
	From     PhaseID   `json:"from"`
	To       PhaseID   `json:"to"`
	At       time.Time `json:"at"`
	Reason   string    `json:"reason"`
	Progress float64   `json:"progress"`
}

// Status describes the current phase.
type Status struct {
	Phase          PhaseID   `json:"phase"`
	Day            int       `json:"day"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Progress       float64   `json:"progress"`
	Next           PhaseID   `json:"next,omitempty"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	LastTransition time.Time `json:"last_transition,omitzero"`
	Held           bool      `json:"held"`
	HoldReason     string    `json:"hold_reason,omitempty"`
}

// Scheduler is the rollout state machine.
type Scheduler struct {
	mu             sync.Mutex
	plan           Plan
	flags          FlagApplier
	current        PhaseID
	startedAt      time.Time
	lastTransition time.Time
	transitions    []Transition
	holdReason     string
	held           bool

	auditPublisher AuditPublisher
	logger         *slog.Logger
	now            func() time.Time
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithPlan(plan Plan) Option {
	return func(s *Scheduler) {
		s.plan = plan
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Scheduler) {
		s.auditPublisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a scheduler in NotStarted using DefaultPlan unless WithPlan is given.
func New(applier FlagApplier, opts ...Option) (*Scheduler, error) {
	if applier == nil {
		return nil, fmt.Errorf("flag applier is required")
	}
	s := &Scheduler{
		plan:    DefaultPlan(),
		flags:   applier,
		current: PhaseNotStarted,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.plan.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Plan returns the configured plan.
func (s *Scheduler) Plan() Plan {
	return s.plan
}

// StartSchedule enters the first phase. It fails if the schedule is already running.
func (s *Scheduler) StartSchedule(ctx context.Context) (Status, error) {
	ctx, span := startSpan(ctx, "scheduler.StartSchedule")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != PhaseNotStarted {
		return s.statusLocked(), dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("schedule already started (phase %s)", s.current))
	}
	s.startedAt = s.now()
	s.transitionLocked(ctx, s.plan.Phases[0].ID, "schedule started", audit.EventScheduleStarted)
	return s.statusLocked(), nil
}

// AdvanceToNextPhase moves forward one phase. From NotStarted it starts the
// schedule; from Completed it is a no-op.
func (s *Scheduler) AdvanceToNextPhase(ctx context.Context) (Status, error) {
	ctx, span := startSpan(ctx, "scheduler.AdvanceToNextPhase")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == PhaseCompleted {
		return s.statusLocked(), nil
	}
	if s.held {
		return s.statusLocked(), s.heldError()
	}
	if s.current == PhaseNotStarted {
		s.startedAt = s.now()
		s.transitionLocked(ctx, s.plan.Phases[0].ID, "schedule started", audit.EventScheduleStarted)
		return s.statusLocked(), nil
	}
	next := s.plan.Phases[s.plan.Index(s.current)+1].ID
	s.transitionLocked(ctx, next, "advanced to next phase", audit.EventPhaseAdvanced)
	return s.statusLocked(), nil
}

// AdvanceTo jumps forward to target. Jumping to the current phase is a no-op;
// jumping backwards or to an unknown phase is rejected.
func (s *Scheduler) AdvanceTo(ctx context.Context, target PhaseID) (Status, error) {
	ctx, span := startSpan(ctx, "scheduler.AdvanceTo", attribute.String("scheduler.target", string(target)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	ti := s.plan.Index(target)
	if ti < 0 {
		return s.statusLocked(), dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("unknown phase %q", target))
	}
	ci := s.plan.Index(s.current)
	if ti == ci {
		return s.statusLocked(), nil
	}
	if ti < ci {
		return s.statusLocked(), dErrors.New(dErrors.CodeInvalidArgument,
			fmt.Sprintf("cannot move from %s back to %s; reset the schedule instead", s.current, target))
	}
	if s.held {
		return s.statusLocked(), s.heldError()
	}
	action := audit.EventPhaseAdvanced
	if s.current == PhaseNotStarted {
		s.startedAt = s.now()
		action = audit.EventScheduleStarted
	}
	s.transitionLocked(ctx, target, fmt.Sprintf("jumped to %s", target), action)
	return s.statusLocked(), nil
}

// ResetSchedule returns to NotStarted, clears any hold and restores default flags.
func (s *Scheduler) ResetSchedule(ctx context.Context) Status {
	ctx, span := startSpan(ctx, "scheduler.ResetSchedule")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.current
	s.current = PhaseNotStarted
	s.startedAt = time.Time{}
	s.held, s.holdReason = false, ""
	s.flags.ResetToDefaults()
	s.recordLocked(ctx, from, "schedule reset", audit.EventScheduleReset)
	return s.statusLocked()
}

// RollbackReset returns to NotStarted without touching flags; the rollback
// service has already applied its safe snapshot. It returns the phase left.
func (s *Scheduler) RollbackReset(ctx context.Context, reason string) PhaseID {
	ctx, span := startSpan(ctx, "scheduler.RollbackReset")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.current
	if from == PhaseNotStarted {
		return from
	}
	s.current = PhaseNotStarted
	s.startedAt = time.Time{}
	s.recordLocked(ctx, from, "rollback: "+reason, "")
	return from
}

// Resume sets the current phase without applying flags. Used after a
// rollback is restored, when flags have already been re-enabled.
func (s *Scheduler) Resume(ctx context.Context, phase PhaseID, reason string) error {
	ctx, span := startSpan(ctx, "scheduler.Resume", attribute.String("scheduler.phase", string(phase)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan.Index(phase) == -2 {
		return dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("unknown phase %q", phase))
	}
	from := s.current
	s.current = phase
	if phase != PhaseNotStarted && s.startedAt.IsZero() {
		s.startedAt = s.now()
	}
	s.recordLocked(ctx, from, reason, audit.EventScheduleRestored)
	return nil
}

// Restore loads persisted progress at startup and re-applies the phase's flags.
func (s *Scheduler) Restore(ctx context.Context, phase PhaseID, startedAt time.Time) error {
	ctx, span := startSpan(ctx, "scheduler.Restore", attribute.String("scheduler.phase", string(phase)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	ph, ok := s.plan.Phase(phase)
	if !ok && phase != PhaseNotStarted {
		return dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("unknown phase %q", phase))
	}
	from := s.current
	s.current = phase
	s.startedAt = startedAt
	if phase == PhaseNotStarted {
		s.startedAt = time.Time{}
		s.flags.ResetToDefaults()
	} else {
		s.flags.ApplySnapshot(ph.Flags)
	}
	s.recordLocked(ctx, from, "restored from persisted state", audit.EventScheduleRestored)
	return nil
}

// Hold blocks forward progress until ReleaseHold. Holding twice keeps the
// first reason.
func (s *Scheduler) Hold(ctx context.Context, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held {
		return false
	}
	s.held, s.holdReason = true, reason
	s.logger.WarnContext(ctx, "schedule held", "phase", s.current, "reason", reason)
	s.emitLocked(ctx, audit.EventScheduleHeld, reason)
	return true
}

// ReleaseHold lifts a hold. It reports whether a hold was active.
func (s *Scheduler) ReleaseHold(ctx context.Context, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.held {
		return false
	}
	s.held, s.holdReason = false, ""
	s.logger.InfoContext(ctx, "schedule hold released", "phase", s.current, "reason", reason)
	s.emitLocked(ctx, audit.EventScheduleReleased, reason)
	return true
}

// Held reports whether forward progress is blocked.
func (s *Scheduler) Held() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

// CurrentStatus returns the current phase and its metadata.
func (s *Scheduler) CurrentStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Progress returns the schedule progress in [0,100].
func (s *Scheduler) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan.Progress(s.current)
}

// CurrentPhase returns the current phase id.
func (s *Scheduler) CurrentPhase() PhaseID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Transitions returns recorded transitions, oldest first.
func (s *Scheduler) Transitions() []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transitions)
}

func (s *Scheduler) heldError() error {
	return dErrors.New(dErrors.CodeConflict, "schedule is held: "+s.holdReason)
}

func (s *Scheduler) transitionLocked(ctx context.Context, to PhaseID, reason string, action audit.AuditEvent) {
	ph, _ := s.plan.Phase(to)
	from := s.current
	s.flags.ApplySnapshot(ph.Flags)
	s.current = to
	s.recordLocked(ctx, from, reason, action)
	s.logger.InfoContext(ctx, "migration phase applied",
		"from", from,
		"to", to,
		"name", ph.Name,
		"progress", s.plan.Progress(to),
	)
}

func (s *Scheduler) recordLocked(ctx context.Context, from PhaseID, reason string, action audit.AuditEvent) {
	now := s.now()
	s.lastTransition = now
	s.transitions = append(s.transitions, Transition{
		From:     from,
		To:       s.current,
		At:       now,
		Reason:   reason,
		Progress: s.plan.Progress(s.current),
	})
	if over := len(s.transitions) - transitionLimit; over > 0 {
		s.transitions = slices.Delete(s.transitions, 0, over)
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("scheduler.from", string(from)),
		attribute.String("scheduler.to", string(s.current)),
	)
	if action != "" {
		s.emitLocked(ctx, action, reason)
	}
}

func (s *Scheduler) emitLocked(ctx context.Context, action audit.AuditEvent, reason string) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(action),
		Subject:   string(s.current),
		Phase:     string(s.current),
		Reason:    reason,
		Score:     -1,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.ActorID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit schedule audit event", "action", action, "error", err)
	}
}

func (s *Scheduler) statusLocked() Status {
	st := Status{
		Phase:          s.current,
		Progress:       s.plan.Progress(s.current),
		StartedAt:      s.startedAt,
		LastTransition: s.lastTransition,
		Held:           s.held,
		HoldReason:     s.holdReason,
	}
	if ph, ok := s.plan.Phase(s.current); ok {
		st.Day, st.Name, st.Description = ph.Day, ph.Name, ph.Description
	} else {
		st.Name, st.Description = "Not Started", "Legacy singletons only; schedule not started."
	}
	switch i := s.plan.Index(s.current); {
	case s.current == PhaseCompleted:
	case i == -1:
		st.Next = s.plan.Phases[0].ID
	default:
		st.Next = s.plan.Phases[i+1].ID
	}
	return st
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
