package scheduler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"handoff/internal/flags"
	dErrors "handoff/pkg/domain-errors"
	"handoff/pkg/platform/audit"
	"handoff/pkg/platform/audit/publisher"
	"handoff/pkg/platform/audit/store/memory"
)

// =============================================================================
// Scheduler Test Suite
// =============================================================================

type SchedulerSuite struct {
	suite.Suite
	ctx    context.Context
	state  *flags.State
	store  *memory.InMemoryStore
	sched  *Scheduler
	logBuf *bytes.Buffer
	now    time.Time
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.ctx = context.Background()
	s.logBuf = &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(s.logBuf, nil))
	s.now = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	s.state = flags.New(flags.WithLogger(logger))
	s.store = memory.NewInMemoryStore()

	var err error
	s.sched, err = New(s.state,
		WithLogger(logger),
		WithAuditPublisher(publisher.NewPublisher(s.store)),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func (s *SchedulerSuite) actions() []string {
	events, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	var out []string
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func (s *SchedulerSuite) TestNew() {
	s.Run("nil applier returns error", func() {
		_, err := New(nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "flag applier is required")
	})

	s.Run("invalid plan returns error", func() {
		_, err := New(s.state, WithPlan(Plan{}))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	s.Run("starts not started with zero progress", func() {
		st := s.sched.CurrentStatus()
		s.Equal(PhaseNotStarted, st.Phase)
		s.Equal(0.0, st.Progress)
		s.Equal(PhaseDay1, st.Next)
	})
}

func (s *SchedulerSuite) TestScenarioStartThenJumpToDay4() {
	s.False(s.state.RegistryEnabled())

	st, err := s.sched.StartSchedule(s.ctx)
	s.Require().NoError(err)
	s.Equal(PhaseDay1, st.Phase)
	s.Equal("Warnings Enabled", st.Name)
	s.True(s.state.WarningsEnabled())
	s.False(s.state.RegistryEnabled())
	s.Equal(s.now, st.StartedAt)

	st, err = s.sched.AdvanceTo(s.ctx, PhaseDay4)
	s.Require().NoError(err)
	snap := s.state.SnapshotNow()
	s.True(snap.RegistryEnabled)
	s.True(snap.LegacyAccessDisabled)
	s.ElementsMatch([]flags.Subsystem{flags.SubsystemAudio, flags.SubsystemSpatialAudio, flags.SubsystemStealthAudio}, snap.Enabled())
	s.GreaterOrEqual(st.Progress, 80.0)
}

func (s *SchedulerSuite) TestProgressIsMonotonicToCompleted() {
	var seen []float64
	for range 10 {
		st, err := s.sched.AdvanceToNextPhase(s.ctx)
		s.Require().NoError(err)
		seen = append(seen, st.Progress)
	}
	for i := 1; i < len(seen); i++ {
		s.GreaterOrEqual(seen[i], seen[i-1])
	}
	s.Equal(100.0, seen[len(seen)-1])
	s.Equal(PhaseCompleted, s.sched.CurrentPhase())
	s.Equal([]float64{20, 40, 60, 80, 100, 100, 100, 100, 100, 100}, seen)

	s.Equal(0.0, s.sched.ResetSchedule(s.ctx).Progress)
	s.Equal(0.0, s.sched.Progress())
}

func (s *SchedulerSuite) TestAdvanceFromCompletedIsNoop() {
	_, err := s.sched.AdvanceTo(s.ctx, PhaseCompleted)
	s.Require().NoError(err)
	before := len(s.sched.Transitions())

	st, err := s.sched.AdvanceToNextPhase(s.ctx)
	s.Require().NoError(err)
	s.Equal(PhaseCompleted, st.Phase)
	s.Empty(st.Next)
	s.Len(s.sched.Transitions(), before)
}

func (s *SchedulerSuite) TestAdvanceTo() {
	s.Run("unknown phase is rejected", func() {
		_, err := s.sched.AdvanceTo(s.ctx, "day9")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	})

	s.Run("from not started records a start", func() {
		st, err := s.sched.AdvanceTo(s.ctx, PhaseDay3)
		s.Require().NoError(err)
		s.Equal(PhaseDay3, st.Phase)
		s.False(st.StartedAt.IsZero())
		s.Equal([]string{string(audit.EventScheduleStarted)}, s.actions())
	})

	s.Run("same phase is a no-op", func() {
		_, err := s.sched.AdvanceTo(s.ctx, PhaseDay3)
		s.Require().NoError(err)
		s.Len(s.sched.Transitions(), 1)
	})

	s.Run("backwards is rejected and leaves flags alone", func() {
		before := s.state.SnapshotNow()
		_, err := s.sched.AdvanceTo(s.ctx, PhaseDay2)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))
		s.True(before.Equal(s.state.SnapshotNow()))
	})
}

func (s *SchedulerSuite) TestStartTwiceConflicts() {
	_, err := s.sched.StartSchedule(s.ctx)
	s.Require().NoError(err)
	_, err = s.sched.StartSchedule(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *SchedulerSuite) TestHold() {
	_, err := s.sched.StartSchedule(s.ctx)
	s.Require().NoError(err)

	s.True(s.sched.Hold(s.ctx, "health trending down"))
	s.False(s.sched.Hold(s.ctx, "second reason"))

	st := s.sched.CurrentStatus()
	s.True(st.Held)
	s.Equal("health trending down", st.HoldReason)

	_, err = s.sched.AdvanceToNextPhase(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	_, err = s.sched.AdvanceTo(s.ctx, PhaseDay5)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(PhaseDay1, s.sched.CurrentPhase())

	s.True(s.sched.ReleaseHold(s.ctx, "operator reviewed"))
	s.False(s.sched.ReleaseHold(s.ctx, "again"))
	_, err = s.sched.AdvanceToNextPhase(s.ctx)
	s.Require().NoError(err)
	s.Equal(PhaseDay2, s.sched.CurrentPhase())

	s.Contains(s.actions(), string(audit.EventScheduleHeld))
	s.Contains(s.actions(), string(audit.EventScheduleReleased))
}

func (s *SchedulerSuite) TestResetAppliesDefaultsAndClearsHold() {
	_, err := s.sched.AdvanceTo(s.ctx, PhaseDay5)
	s.Require().NoError(err)
	s.sched.Hold(s.ctx, "pause")

	st := s.sched.ResetSchedule(s.ctx)
	s.Equal(PhaseNotStarted, st.Phase)
	s.False(st.Held)
	s.True(st.StartedAt.IsZero())
	s.True(s.state.SnapshotNow().Equal(flags.Defaults()))
}

func (s *SchedulerSuite) TestRollbackResetAndResume() {
	_, err := s.sched.AdvanceTo(s.ctx, PhaseDay3)
	s.Require().NoError(err)
	s.state.SetUseRegistry(flags.SubsystemAudio, false)

	left := s.sched.RollbackReset(s.ctx, "health critical")
	s.Equal(PhaseDay3, left)
	s.Equal(PhaseNotStarted, s.sched.CurrentPhase())
	s.False(s.state.UseRegistry(flags.SubsystemAudio), "rollback reset must not touch flags")

	s.Equal(PhaseNotStarted, s.sched.RollbackReset(s.ctx, "again"))

	s.Require().NoError(s.sched.Resume(s.ctx, left, "incident over"))
	s.Equal(PhaseDay3, s.sched.CurrentPhase())
	s.Error(s.sched.Resume(s.ctx, "bogus", "x"))
}

func (s *SchedulerSuite) TestRestore() {
	s.Run("restores phase and reapplies flags", func() {
		started := s.now.Add(-48 * time.Hour)
		s.Require().NoError(s.sched.Restore(s.ctx, PhaseDay2, started))
		st := s.sched.CurrentStatus()
		s.Equal(PhaseDay2, st.Phase)
		s.Equal(started, st.StartedAt)
		s.True(s.state.Routes(flags.SubsystemAudio))
	})

	s.Run("unknown phase is rejected", func() {
		err := s.sched.Restore(s.ctx, "day42", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidArgument))
		s.Equal(PhaseDay2, s.sched.CurrentPhase())
	})

	s.Run("not started resets flags", func() {
		s.Require().NoError(s.sched.Restore(s.ctx, PhaseNotStarted, s.now))
		s.True(s.state.SnapshotNow().Equal(flags.Defaults()))
	})
}

func (s *SchedulerSuite) TestFaultyObserverDoesNotBlockRollout() {
	s.state.Subscribe("broken-dashboard", func(prev, next flags.Snapshot) error {
		return errors.New("dashboard offline")
	})
	s.state.Subscribe("panicking-widget", func(prev, next flags.Snapshot) error {
		panic("nil widget")
	})

	for range 6 {
		_, err := s.sched.AdvanceToNextPhase(s.ctx)
		s.Require().NoError(err)
	}
	s.Equal(PhaseCompleted, s.sched.CurrentPhase())
	s.Contains(s.logBuf.String(), "flag observer failed")
	s.Contains(s.logBuf.String(), "flag observer panicked")
}

// =============================================================================
// Auto-advance
// =============================================================================

func (s *SchedulerSuite) TestAutoAdvancer() {
	auto, err := NewAutoAdvancer(s.sched, 24*time.Hour,
		WithAutoLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAutoClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	s.Run("does not start a schedule", func() {
		s.now = s.now.Add(72 * time.Hour)
		s.False(auto.Tick(s.ctx))
		s.Equal(PhaseNotStarted, s.sched.CurrentPhase())
	})

	s.Run("waits a full day", func() {
		_, err := s.sched.StartSchedule(s.ctx)
		s.Require().NoError(err)
		s.now = s.now.Add(23 * time.Hour)
		s.False(auto.Tick(s.ctx))
		s.now = s.now.Add(time.Hour)
		s.True(auto.Tick(s.ctx))
		s.Equal(PhaseDay2, s.sched.CurrentPhase())
	})

	s.Run("blocked by hold", func() {
		s.sched.Hold(s.ctx, "trend")
		s.now = s.now.Add(48 * time.Hour)
		s.False(auto.Tick(s.ctx))
		s.Equal(PhaseDay2, s.sched.CurrentPhase())
		s.sched.ReleaseHold(s.ctx, "ok")
		s.True(auto.Tick(s.ctx))
		s.Equal(PhaseDay3, s.sched.CurrentPhase())
	})

	s.Run("constructor validation", func() {
		_, err := NewAutoAdvancer(nil, time.Hour)
		s.Error(err)
		_, err = NewAutoAdvancer(s.sched, 0)
		s.Error(err)
	})
}
