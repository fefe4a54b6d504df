// Package rollback forces the flag state back to a known-safe configuration,
// globally or for one subsystem, and keeps the audit trail of every rollback,
// recovery and emergency.
package rollback

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"handoff/internal/flags"
	"handoff/internal/scheduler"
	dErrors "handoff/pkg/domain-errors"
	"handoff/pkg/platform/audit"
	"handoff/pkg/requestcontext"
)

var tracer = otel.Tracer("handoff.rollback")

// FlagState is the flag surface a rollback rewrites.
type FlagState interface {
	SnapshotNow() flags.Snapshot
	ApplySnapshot(snap flags.Snapshot)
}

// Schedule is reset by a global rollback and resumed by a restore.
type Schedule interface {
	RollbackReset(ctx context.Context, reason string) scheduler.PhaseID
	Resume(ctx context.Context, phase scheduler.PhaseID, reason string) error
}

// AuditPublisher records rollback events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service executes rollbacks.
type Service struct {
	flags          FlagState
	log            *Log
	schedule       Schedule
	auditPublisher AuditPublisher
	logger         *slog.Logger
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSchedule resets the schedule on global rollback.
func WithSchedule(schedule Schedule) Option {
	return func(s *Service) {
		s.schedule = schedule
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithLog shares an existing history, e.g. one seeded from persisted state.
func WithLog(log *Log) Option {
	return func(s *Service) {
		s.log = log
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(state FlagState, opts ...Option) (*Service, error) {
	if state == nil {
		return nil, fmt.Errorf("flag state is required")
	}
	s := &Service{
		flags:  state,
		log:    NewLog(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Log returns the rollback history.
func (s *Service) Log() *Log {
	return s.log
}

// SafeSnapshot is the known-safe configuration: registry on as
// infrastructure, every subsystem on its legacy path, legacy access allowed,
// warnings, monitoring and auto-rollback quiet.
func SafeSnapshot() flags.Snapshot {
	return flags.Snapshot{
		RegistryEnabled: true,
		UseRegistryFor:  map[flags.Subsystem]bool{},
	}
}

// ExecuteEmergencyRollback unconditionally applies SafeSnapshot, resets the
// schedule and resolves open emergencies.
func (s *Service) ExecuteEmergencyRollback(ctx context.Context, reason string) Record {
	ctx, span := tracer.Start(ctx, "rollback.ExecuteEmergencyRollback")
	defer span.End()

	prev := s.flags.SnapshotNow()
	next := SafeSnapshot()
	s.flags.ApplySnapshot(next)

	rec := Record{
		ID:        uuid.New(),
		Timestamp: s.now(),
		Reason:    reason,
		Scope:     ScopeGlobal,
		Previous:  prev,
		Resulting: next.Clone(),
		Disabled:  prev.Enabled(),
	}
	if s.schedule != nil {
		rec.Phase = s.schedule.RollbackReset(ctx, reason)
	}
	s.log.append(rec)
	resolved := s.log.resolveEmergencies()

	span.SetAttributes(
		attribute.Int("rollback.disabled", len(rec.Disabled)),
		attribute.String("rollback.phase", string(rec.Phase)),
	)
	s.logger.WarnContext(ctx, "emergency rollback executed",
		"reason", reason,
		"disabled", rec.Disabled,
		"phase_left", rec.Phase,
		"emergencies_resolved", resolved,
	)
	s.emit(ctx, audit.EventEmergencyRollback, "", reason)
	return rec
}

// RollbackSpecificService turns off one subsystem flag and nothing else.
func (s *Service) RollbackSpecificService(ctx context.Context, sub flags.Subsystem, reason string) (Record, error) {
	ctx, span := tracer.Start(ctx, "rollback.RollbackSpecificService",
		trace.WithAttributes(attribute.String("rollback.subsystem", string(sub))))
	defer span.End()

	if !sub.IsValid() {
		return Record{}, dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("unknown subsystem %q", sub))
	}
	prev := s.flags.SnapshotNow()
	next := prev.Clone()
	next.UseRegistryFor[sub] = false
	s.flags.ApplySnapshot(next)

	rec := Record{
		ID:        uuid.New(),
		Timestamp: s.now(),
		Reason:    reason,
		Scope:     ScopeSubsystem,
		Subsystem: sub,
		Previous:  prev,
		Resulting: next,
	}
	if prev.UseRegistryFor[sub] {
		rec.Disabled = []flags.Subsystem{sub}
	}
	s.log.append(rec)

	s.logger.WarnContext(ctx, "service rolled back",
		"subsystem", sub,
		"reason", reason,
		"was_enabled", prev.UseRegistryFor[sub],
	)
	s.emit(ctx, audit.EventServiceRolledBack, string(sub), reason)
	return rec, nil
}

// RestoreFromRollback re-enables every subsystem disabled since the last
// recovery and resumes the schedule where a global rollback left it.
func (s *Service) RestoreFromRollback(ctx context.Context, reason string) (Record, error) {
	ctx, span := tracer.Start(ctx, "rollback.RestoreFromRollback")
	defer span.End()

	recs, subs := s.log.pending()
	if len(recs) == 0 {
		return Record{}, dErrors.New(dErrors.CodeConflict, "no rollback to restore from")
	}

	prev := s.flags.SnapshotNow()
	next := prev.Clone()
	next.RegistryEnabled = true
	for _, sub := range subs {
		next.UseRegistryFor[sub] = true
	}
	// the first global rollback holds the pre-incident switches
	var phase scheduler.PhaseID
	if i := slices.IndexFunc(recs, func(r Record) bool { return r.Scope == ScopeGlobal }); i >= 0 {
		first := recs[i].Previous
		phase = recs[i].Phase
		next.WarningsEnabled = first.WarningsEnabled
		next.MonitoringEnabled = first.MonitoringEnabled
		next.AutoRollbackEnabled = first.AutoRollbackEnabled
		next.LegacyAccessDisabled = first.LegacyAccessDisabled && first.RegistryEnabled
	}
	s.flags.ApplySnapshot(next)

	rec := Record{
		ID:        uuid.New(),
		Timestamp: s.now(),
		Reason:    reason,
		Scope:     ScopeRecovery,
		Previous:  prev,
		Resulting: next.Clone(),
		Restored:  subs,
		Phase:     phase,
	}
	s.log.append(rec)
	s.log.resolveEmergencies()

	if s.schedule != nil && phase != "" && phase != scheduler.PhaseNotStarted {
		if err := s.schedule.Resume(ctx, phase, "restored after rollback: "+reason); err != nil {
			s.logger.ErrorContext(ctx, "failed to resume schedule after restore", "phase", phase, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "restored from rollback",
		"reason", reason,
		"restored", subs,
		"phase", phase,
	)
	s.emit(ctx, audit.EventRollbackRestored, "", reason)
	return rec, nil
}

// SetEmergencyFlag records a critical condition without changing flags.
// The emergency stays open until a rollback or restore resolves it.
func (s *Service) SetEmergencyFlag(ctx context.Context, reason string) Record {
	snap := s.flags.SnapshotNow()
	rec := Record{
		ID:        uuid.New(),
		Timestamp: s.now(),
		Reason:    reason,
		Scope:     ScopeEmergency,
		Previous:  snap,
		Resulting: snap.Clone(),
	}
	s.log.append(rec)
	s.logger.ErrorContext(ctx, "emergency flagged, auto-rollback disabled", "reason", reason)
	s.emit(ctx, audit.EventEmergencyFlagged, "", reason)
	return rec
}

// History returns the full audit trail, most recent last.
func (s *Service) History() []Record {
	return s.log.History()
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, subject, reason string) {
	if s.auditPublisher == nil {
		return
	}
	actor := requestcontext.ActorID(ctx)
	if actor == "" {
		actor = "system"
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(action),
		Subject:   subject,
		Reason:    reason,
		Score:     -1,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   actor,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit rollback audit event", "action", action, "error", err)
	}
}
