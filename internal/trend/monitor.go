// Package trend runs the background health loop: it samples the health
// model, keeps a bounded history, rolls back on immediate danger and holds
// the rollout on a degrading trend.
package trend

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"handoff/internal/flags"
	"handoff/internal/health"
	dErrors "handoff/pkg/domain-errors"
	"handoff/pkg/platform/audit"
	"handoff/pkg/requestcontext"
)

var tracer = otel.Tracer("handoff.trend")

// Status summarises the monitor for reports.
type Status struct {
	Running           bool            `json:"running"`
	Ticks             uint64          `json:"ticks"`
	Faults            uint64          `json:"faults"`
	Samples           int             `json:"samples"`
	PendingEscalation flags.Subsystem `json:"pending_escalation,omitempty"`
	TrendWarning      bool            `json:"trend_warning"`
	Last              TickResult      `json:"last"`
}

// Monitor is the trend monitor.
type Monitor struct {
	cfg       Config
	health    HealthSource
	flags     FlagView
	responder Responder
	holder    Holder
	observers []HealthObserver
	metrics   Metrics
	publisher AuditPublisher
	history   *History
	logger    *slog.Logger
	now       func() time.Time

	ticks  atomic.Uint64
	faults atomic.Uint64

	// tickMu serialises ticks and guards the recovery state below.
	tickMu      sync.Mutex
	escalate    flags.Subsystem
	flagged     bool
	trendWarned bool
	last        TickResult

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Monitor)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

func WithConfig(cfg Config) Option {
	return func(m *Monitor) {
		m.cfg = cfg
	}
}

// WithHolder lets the monitor block the schedule on danger or a degrading trend.
func WithHolder(h Holder) Option {
	return func(m *Monitor) {
		m.holder = h
	}
}

// WithObserver forwards every sample to o.
func WithObserver(o HealthObserver) Option {
	return func(m *Monitor) {
		m.observers = append(m.observers, o)
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(m *Monitor) {
		m.metrics = metrics
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Monitor) {
		m.publisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

func New(src HealthSource, view FlagView, responder Responder, opts ...Option) (*Monitor, error) {
	if src == nil || view == nil || responder == nil {
		return nil, fmt.Errorf("health source, flag view and responder are required")
	}
	m := &Monitor{
		cfg:       DefaultConfig(),
		health:    src,
		flags:     view,
		responder: responder,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cfg = m.cfg.withDefaults()
	m.history = NewHistory(m.cfg.HistorySize)
	return m, nil
}

// Start runs the loop in the background until Stop or ctx cancellation.
func (m *Monitor) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		return dErrors.New(dErrors.CodeConflict, "trend monitor already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel, m.done = cancel, done
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()
	m.logger.InfoContext(ctx, "trend monitor started", "interval", m.cfg.Interval)
	return nil
}

// Stop cancels the loop and waits for an in-flight tick to finish. No tick
// fires after Stop returns. Stopping a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel, m.done = nil, nil
	m.logger.Info("trend monitor stopped", "ticks", m.ticks.Load())
}

// Running reports whether Start has been called without a matching Stop.
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.cancel != nil
}

// Run ticks every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.Tick(ctx)
		}
	}
}

// Tick runs one monitoring cycle. A panic anywhere in the cycle is logged as
// a recoverable monitoring fault and reported as ActionFault.
func (m *Monitor) Tick(ctx context.Context) (res TickResult) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	ctx = requestcontext.WithActorID(ctx, "trend-monitor")
	ctx, span := tracer.Start(ctx, "trend.Tick")
	start := m.now()
	m.ticks.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err := dErrors.New(dErrors.CodeRecoverableMonitoringFault, fmt.Sprintf("monitoring tick panicked: %v", r))
			m.faults.Add(1)
			m.logger.ErrorContext(ctx, "monitoring tick failed", "error", err)
			span.RecordError(err)
			res = TickResult{At: start, Action: ActionFault, Detail: err.Error()}
		}
		m.last = res
		span.SetAttributes(
			attribute.Int("trend.score", res.Score),
			attribute.String("trend.action", string(res.Action)),
		)
		span.End()
		if m.metrics != nil {
			m.metrics.ObserveTick(m.now().Sub(start))
		}
	}()

	snap := m.health.CheckSystemHealth()
	m.history.Add(snap)
	if m.metrics != nil {
		m.metrics.SetHealthScore(snap.Score)
	}
	for _, o := range m.observers {
		o.ObserveHealth(snap)
	}

	res = TickResult{At: start, Score: snap.Score, Action: ActionNone}
	fl := m.flags.SnapshotNow()
	if !fl.MonitoringEnabled {
		m.escalate = ""
		res.Action = ActionSkipped
		return res
	}

	if snap.Score < m.cfg.DangerThreshold {
		m.trendWarned = false
		return m.respond(ctx, snap, fl, res)
	}
	if m.escalate != "" {
		m.logger.InfoContext(ctx, "targeted rollback restored health", "subsystem", m.escalate, "score", snap.Score)
		m.escalate = ""
	}
	m.flagged = false
	return m.watchTrend(ctx, snap, res)
}

func (m *Monitor) respond(ctx context.Context, snap health.Snapshot, fl flags.Snapshot, res TickResult) TickResult {
	issues := snap.Classes()
	if !fl.AutoRollbackEnabled {
		m.hold(ctx, fmt.Sprintf("health %d below %d", snap.Score, m.cfg.DangerThreshold))
		res.Action = ActionHold
		if snap.Score <= m.cfg.CriticalThreshold && !m.flagged {
			m.responder.SetEmergencyFlag(ctx, fmt.Sprintf("critical health %d with auto-rollback disabled (issues %v)", snap.Score, issues))
			m.flagged = true
			res.Action = ActionEmergencyFlag
		}
		return res
	}

	if m.escalate != "" {
		reason := fmt.Sprintf("health %d still below %d after rolling back %s", snap.Score, m.cfg.DangerThreshold, m.escalate)
		m.responder.ExecuteEmergencyRollback(ctx, reason)
		m.escalate = ""
		res.Action, res.Detail = ActionEmergencyRollback, reason
		return res
	}

	target, ok := recoveryTarget(fl, m.flags)
	if !ok {
		reason := fmt.Sprintf("health %d below %d with no subsystem to isolate (issues %v)", snap.Score, m.cfg.DangerThreshold, issues)
		m.responder.ExecuteEmergencyRollback(ctx, reason)
		res.Action, res.Detail = ActionEmergencyRollback, reason
		return res
	}

	reason := fmt.Sprintf("health %d below %d (issues %v)", snap.Score, m.cfg.DangerThreshold, issues)
	if _, err := m.responder.RollbackSpecificService(ctx, target, reason); err != nil {
		m.logger.ErrorContext(ctx, "targeted rollback failed, escalating", "subsystem", target, "error", err)
		m.responder.ExecuteEmergencyRollback(ctx, reason)
		res.Action, res.Detail = ActionEmergencyRollback, reason
		return res
	}
	m.hold(ctx, "recovering "+string(target))
	m.escalate = target
	res.Action, res.Subsystem, res.Detail = ActionServiceRollback, target, reason
	return res
}

func (m *Monitor) watchTrend(ctx context.Context, snap health.Snapshot, res TickResult) TickResult {
	scores := m.history.Last(m.cfg.Window)
	if len(scores) < m.cfg.Window || !Degrading(scores, m.cfg.SlopeThreshold) {
		m.trendWarned = false
		return res
	}
	if m.trendWarned {
		return res
	}
	m.trendWarned = true
	detail := fmt.Sprintf("health degrading over %d samples: %v", len(scores), scores)
	m.logger.WarnContext(ctx, "health trend degrading, holding rollout",
		"scores", scores,
		"score", snap.Score,
		"issues", snap.Classes(),
	)
	m.hold(ctx, detail)
	m.emit(ctx, snap, detail)
	res.Action, res.Detail = ActionTrendWarning, detail
	return res
}

func (m *Monitor) hold(ctx context.Context, reason string) {
	if m.holder == nil {
		return
	}
	m.holder.Hold(ctx, reason)
}

func (m *Monitor) emit(ctx context.Context, snap health.Snapshot, reason string) {
	if m.publisher == nil {
		return
	}
	err := m.publisher.Emit(ctx, audit.Event{
		Action:  string(audit.EventTrendWarning),
		Reason:  reason,
		Score:   snap.Score,
		ActorID: requestcontext.ActorID(ctx),
	})
	if err != nil {
		m.logger.WarnContext(ctx, "failed to emit trend audit event", "error", err)
	}
}

// recoveryTarget picks the most recently enabled subsystem that is still
// enabled, falling back to the latest in rollout order.
func recoveryTarget(fl flags.Snapshot, view FlagView) (flags.Subsystem, bool) {
	enabled := fl.Enabled()
	if len(enabled) == 0 {
		return "", false
	}
	if sub, ok := view.LastEnabled(); ok && slices.Contains(enabled, sub) {
		return sub, true
	}
	return enabled[len(enabled)-1], true
}

// History returns retained samples, oldest first.
func (m *Monitor) History() []health.Snapshot {
	return m.history.Samples()
}

// Status reports counters and recovery state.
func (m *Monitor) Status() Status {
	running := m.Running()
	m.tickMu.Lock()
	defer m.tickMu.Unlock()
	return Status{
		Running:           running,
		Ticks:             m.ticks.Load(),
		Faults:            m.faults.Load(),
		Samples:           m.history.Len(),
		PendingEscalation: m.escalate,
		TrendWarning:      m.trendWarned,
		Last:              m.last,
	}
}
