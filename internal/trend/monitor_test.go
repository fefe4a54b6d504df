package trend

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"handoff/internal/flags"
	"handoff/internal/health"
	"handoff/internal/rollback"
	"handoff/internal/trend/mocks"
	dErrors "handoff/pkg/domain-errors"
	"handoff/pkg/platform/audit"
)

// =============================================================================
// Monitor Test Suite
// =============================================================================

type MonitorSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	health    *mocks.MockHealthSource
	responder *mocks.MockResponder
	holder    *mocks.MockHolder
	publisher *mocks.MockAuditPublisher
	state     *flags.State
	monitor   *Monitor
}

func TestMonitorSuite(t *testing.T) {
	suite.Run(t, new(MonitorSuite))
}

func (s *MonitorSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.health = mocks.NewMockHealthSource(s.ctrl)
	s.responder = mocks.NewMockResponder(s.ctrl)
	s.holder = mocks.NewMockHolder(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.state = flags.New(flags.WithLogger(quiet))
	s.state.ApplySnapshot(flags.Snapshot{
		RegistryEnabled:     true,
		WarningsEnabled:     true,
		MonitoringEnabled:   true,
		AutoRollbackEnabled: true,
		UseRegistryFor:      map[flags.Subsystem]bool{},
	})

	var err error
	s.monitor, err = New(s.health, s.state, s.responder,
		WithLogger(quiet),
		WithHolder(s.holder),
		WithAuditPublisher(s.publisher),
		WithConfig(Config{Window: 5, SlopeThreshold: 2}),
	)
	s.Require().NoError(err)
}

func (s *MonitorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *MonitorSuite) scores(scores ...int) {
	calls := make([]any, 0, len(scores))
	for _, sc := range scores {
		calls = append(calls, s.health.EXPECT().CheckSystemHealth().Return(health.Snapshot{
			Score:     sc,
			IsHealthy: sc >= health.HealthyThreshold,
		}))
	}
	gomock.InOrder(calls...)
}

func (s *MonitorSuite) TestNew() {
	_, err := New(nil, s.state, s.responder)
	s.Require().Error(err)

	m, err := New(s.health, s.state, s.responder, WithConfig(Config{Window: 100, HistorySize: 10}))
	s.Require().NoError(err)
	s.Equal(10, m.cfg.Window)
	s.Equal(DefaultConfig().Interval, m.cfg.Interval)
}

func (s *MonitorSuite) TestHealthyTickDoesNothing() {
	s.scores(100)
	res := s.monitor.Tick(s.ctx)
	s.Equal(ActionNone, res.Action)
	s.Equal(100, res.Score)
	s.Len(s.monitor.History(), 1)
}

func (s *MonitorSuite) TestMonitoringDisabledSkipsResponse() {
	s.state.SetMonitoringEnabled(false)
	s.scores(10)
	res := s.monitor.Tick(s.ctx)
	s.Equal(ActionSkipped, res.Action)
	s.Len(s.monitor.History(), 1, "samples are still retained")
}

func (s *MonitorSuite) TestGraduatedRecoveryEscalates() {
	s.state.SetUseRegistry(flags.SubsystemAudio, true)
	s.state.SetUseRegistry(flags.SubsystemSpatialAudio, true)
	s.scores(50, 40)

	gomock.InOrder(
		s.responder.EXPECT().
			RollbackSpecificService(gomock.Any(), flags.SubsystemSpatialAudio, gomock.Any()).
			Return(rollback.Record{Scope: rollback.ScopeSubsystem}, nil),
		s.responder.EXPECT().
			ExecuteEmergencyRollback(gomock.Any(), gomock.Any()).
			Return(rollback.Record{Scope: rollback.ScopeGlobal}),
	)
	s.holder.EXPECT().Hold(gomock.Any(), gomock.Any()).Return(true)

	first := s.monitor.Tick(s.ctx)
	s.Equal(ActionServiceRollback, first.Action)
	s.Equal(flags.SubsystemSpatialAudio, first.Subsystem)
	s.Equal(flags.SubsystemSpatialAudio, s.monitor.Status().PendingEscalation)

	second := s.monitor.Tick(s.ctx)
	s.Equal(ActionEmergencyRollback, second.Action)
	s.Contains(second.Detail, "spatial-audio")
	s.Empty(s.monitor.Status().PendingEscalation)
}

func (s *MonitorSuite) TestTargetedRollbackThatRestoresHealthDoesNotEscalate() {
	s.state.SetUseRegistry(flags.SubsystemEffects, true)
	s.scores(60, 90)
	s.responder.EXPECT().
		RollbackSpecificService(gomock.Any(), flags.SubsystemEffects, gomock.Any()).
		Return(rollback.Record{}, nil)
	s.holder.EXPECT().Hold(gomock.Any(), gomock.Any()).Return(true)

	s.Equal(ActionServiceRollback, s.monitor.Tick(s.ctx).Action)
	s.Equal(ActionNone, s.monitor.Tick(s.ctx).Action)
	s.Empty(s.monitor.Status().PendingEscalation)
}

func (s *MonitorSuite) TestRecoveryTargetFallsBackToRolloutOrder() {
	// no recorded changes: the initial snapshot is not a change
	state := flags.New(flags.WithInitial(flags.Snapshot{
		RegistryEnabled:     true,
		MonitoringEnabled:   true,
		AutoRollbackEnabled: true,
		UseRegistryFor: map[flags.Subsystem]bool{
			flags.SubsystemAudio:        true,
			flags.SubsystemStealthAudio: true,
		},
	}))
	_, known := state.LastEnabled()
	s.Require().False(known)

	m, err := New(s.health, state, s.responder, WithHolder(s.holder))
	s.Require().NoError(err)
	s.scores(50)
	s.responder.EXPECT().
		RollbackSpecificService(gomock.Any(), flags.SubsystemStealthAudio, gomock.Any()).
		Return(rollback.Record{}, nil)
	s.holder.EXPECT().Hold(gomock.Any(), gomock.Any()).Return(true)

	s.Equal(flags.SubsystemStealthAudio, m.Tick(s.ctx).Subsystem)
}

func (s *MonitorSuite) TestNothingToIsolateRollsBackEverything() {
	s.scores(40)
	s.responder.EXPECT().ExecuteEmergencyRollback(gomock.Any(), gomock.Any()).Return(rollback.Record{})

	s.Equal(ActionEmergencyRollback, s.monitor.Tick(s.ctx).Action)
}

func (s *MonitorSuite) TestFailedTargetedRollbackEscalatesImmediately() {
	s.state.SetUseRegistry(flags.SubsystemAudio, true)
	s.scores(40)
	s.responder.EXPECT().
		RollbackSpecificService(gomock.Any(), flags.SubsystemAudio, gomock.Any()).
		Return(rollback.Record{}, errors.New("boom"))
	s.responder.EXPECT().ExecuteEmergencyRollback(gomock.Any(), gomock.Any()).Return(rollback.Record{})

	s.Equal(ActionEmergencyRollback, s.monitor.Tick(s.ctx).Action)
}

func (s *MonitorSuite) TestAutoRollbackDisabled() {
	s.state.SetAutoRollbackEnabled(false)
	s.state.SetUseRegistry(flags.SubsystemAudio, true)
	s.scores(50, 20, 20, 80, 20)
	s.holder.EXPECT().Hold(gomock.Any(), gomock.Any()).Return(true).Times(4)
	s.responder.EXPECT().SetEmergencyFlag(gomock.Any(), gomock.Any()).Return(rollback.Record{}).Times(2)

	s.Equal(ActionHold, s.monitor.Tick(s.ctx).Action)
	s.Equal(ActionEmergencyFlag, s.monitor.Tick(s.ctx).Action)
	s.Equal(ActionHold, s.monitor.Tick(s.ctx).Action, "an open emergency is flagged once")
	s.Equal(ActionNone, s.monitor.Tick(s.ctx).Action)
	s.Equal(ActionEmergencyFlag, s.monitor.Tick(s.ctx).Action, "a new incident flags again")
}

func (s *MonitorSuite) TestDegradingTrendHoldsWithoutRollback() {
	s.scores(100, 96, 92, 88, 84, 80, 81)
	s.holder.EXPECT().Hold(gomock.Any(), gomock.Any()).Return(true).Times(1)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventTrendWarning), e.Action)
			s.Equal(84, e.Score)
			return nil
		})

	var actions []Action
	for range 7 {
		actions = append(actions, s.monitor.Tick(s.ctx).Action)
	}
	s.Equal([]Action{
		ActionNone, ActionNone, ActionNone, ActionNone,
		ActionTrendWarning,
		ActionNone, // still degrading, already warned
		ActionNone, // trend broken
	}, actions)
	s.False(s.monitor.Status().TrendWarning)
}

func (s *MonitorSuite) TestShallowDeclineIsNotATrend() {
	s.scores(100, 99, 98, 97, 96)
	for range 5 {
		s.Equal(ActionNone, s.monitor.Tick(s.ctx).Action)
	}
}

func (s *MonitorSuite) TestTickRecoversPanics() {
	gomock.InOrder(
		s.health.EXPECT().CheckSystemHealth().DoAndReturn(func() health.Snapshot {
			panic("checker exploded")
		}),
		s.health.EXPECT().CheckSystemHealth().Return(health.Snapshot{Score: 100, IsHealthy: true}),
	)

	res := s.monitor.Tick(s.ctx)
	s.Equal(ActionFault, res.Action)
	s.Contains(res.Detail, "checker exploded")
	s.Equal(uint64(1), s.monitor.Status().Faults)

	s.Equal(ActionNone, s.monitor.Tick(s.ctx).Action)
}

func (s *MonitorSuite) TestObserversAndMetricsSeeEverySample() {
	observer := mocks.NewMockHealthObserver(s.ctrl)
	metrics := mocks.NewMockMetrics(s.ctrl)
	m, err := New(s.health, s.state, s.responder, WithObserver(observer), WithMetrics(metrics))
	s.Require().NoError(err)

	s.scores(95)
	observer.EXPECT().ObserveHealth(gomock.Any()).Do(func(h health.Snapshot) { s.Equal(95, h.Score) })
	metrics.EXPECT().SetHealthScore(95)
	metrics.EXPECT().ObserveTick(gomock.Any())

	m.Tick(s.ctx)
}

// =============================================================================
// Lifecycle
// =============================================================================

type constantHealth struct {
	calls atomic.Int64
}

func (c *constantHealth) CheckSystemHealth() health.Snapshot {
	c.calls.Add(1)
	return health.Snapshot{Score: 100, IsHealthy: true}
}

func newLoopMonitor(t *testing.T, src HealthSource) *Monitor {
	t.Helper()
	state := flags.New()
	m, err := New(src, state, mocks.NewMockResponder(gomock.NewController(t)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithConfig(Config{Interval: 2 * time.Millisecond}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func (s *MonitorSuite) TestStartStop() {
	src := &constantHealth{}
	m := newLoopMonitor(s.T(), src)

	s.Require().NoError(m.Start(s.ctx))
	s.True(m.Running())
	err := m.Start(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	s.Eventually(func() bool { return src.calls.Load() >= 3 }, time.Second, time.Millisecond)
	m.Stop()
	s.False(m.Running())

	stoppedAt := src.calls.Load()
	time.Sleep(20 * time.Millisecond)
	s.Equal(stoppedAt, src.calls.Load(), "no tick after Stop")

	m.Stop()
}

func (s *MonitorSuite) TestStopThenRecreate() {
	first := &constantHealth{}
	m1 := newLoopMonitor(s.T(), first)
	s.Require().NoError(m1.Start(s.ctx))
	s.Eventually(func() bool { return first.calls.Load() > 0 }, time.Second, time.Millisecond)
	m1.Stop()
	frozen := first.calls.Load()

	second := &constantHealth{}
	m2 := newLoopMonitor(s.T(), second)
	s.Require().NoError(m2.Start(s.ctx))
	s.Eventually(func() bool { return second.calls.Load() >= 3 }, time.Second, time.Millisecond)
	m2.Stop()

	s.Equal(frozen, first.calls.Load(), "the stopped monitor stays silent")
}

func (s *MonitorSuite) TestContextCancellationStopsLoop() {
	src := &constantHealth{}
	m := newLoopMonitor(s.T(), src)
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	s.Eventually(func() bool { return src.calls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	s.ErrorIs(<-done, context.Canceled)
}
