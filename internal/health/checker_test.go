package health

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"handoff/internal/flags"
	"handoff/internal/registry"
)

type fakeDirectory map[registry.Contract]bool

func (d fakeDirectory) Lookup(c registry.Contract) (any, bool) {
	if !d[c] {
		return nil, false
	}
	return struct{}{}, true
}

type footsteps interface {
	Step(surface string) string
}

type fakeRollbacks struct {
	last      time.Time
	has       bool
	emergency bool
}

func (f *fakeRollbacks) LastRollback() (time.Time, bool) { return f.last, f.has }
func (f *fakeRollbacks) HasOpenEmergency() bool          { return f.emergency }

// =============================================================================
// Health Checker Test Suite
// =============================================================================

type CheckerSuite struct {
	suite.Suite
	state     *flags.State
	dir       fakeDirectory
	rollbacks *fakeRollbacks
	now       time.Time
	checker   *Checker
}

func TestCheckerSuite(t *testing.T) {
	suite.Run(t, new(CheckerSuite))
}

func (s *CheckerSuite) SetupTest() {
	s.state = flags.New(flags.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.dir = fakeDirectory{}
	s.rollbacks = &fakeRollbacks{}
	s.now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	s.checker = NewChecker(s.state,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithServices(s.dir, map[flags.Subsystem]registry.Contract{
			flags.SubsystemAudio:   "svc.audio",
			flags.SubsystemEffects: "svc.effects",
		}),
		WithRollbackLog(s.rollbacks),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *CheckerSuite) TestDefaultsOnlyLoseRegistryPoints() {
	snap := s.checker.CheckSystemHealth()
	s.Equal(80, snap.Score)
	s.True(snap.IsHealthy)
	s.Equal([]IssueClass{IssueRegistryDisabled}, snap.Classes())
	s.Equal(s.now, snap.Timestamp)
}

func (s *CheckerSuite) TestRegistryOffWithSubsystemOnIsInconsistent() {
	s.state.SetRegistryEnabled(false)
	s.state.SetUseRegistry(flags.SubsystemAudio, true)
	s.dir["svc.audio"] = true

	snap := s.checker.CheckSystemHealth()
	s.False(snap.IsHealthy)
	s.True(snap.Has(IssueInconsistentConfiguration))
	s.Less(snap.Score, HealthyThreshold)
	s.Equal(40, snap.Score)
	s.Equal(BandPoor, snap.Band())
}

func (s *CheckerSuite) TestPenaltyAppliesOncePerClass() {
	s.state.SetUseRegistry(flags.SubsystemAudio, true)
	s.state.SetUseRegistry(flags.SubsystemSpatialAudio, true)
	s.state.SetLegacyAccessDisabled(true)

	snap := s.checker.CheckSystemHealth()
	s.Len(snap.Issues, 6)
	// inconsistent 40, registry 20, warnings 10, missing audio 25
	s.Equal(5, snap.Score)
}

func (s *CheckerSuite) TestScoreFloorsAtZero() {
	s.state.SetUseRegistry(flags.SubsystemAudio, true)
	s.state.SetLegacyAccessDisabled(true)
	s.rollbacks.has = true
	s.rollbacks.last = s.now.Add(-time.Minute)
	s.rollbacks.emergency = true

	snap := s.checker.CheckSystemHealth()
	s.Equal(0, snap.Score)
	s.False(snap.IsHealthy)
}

func (s *CheckerSuite) TestMissingService() {
	s.state.SetRegistryEnabled(true)
	s.state.SetUseRegistry(flags.SubsystemEffects, true)
	s.state.SetUseRegistry(flags.SubsystemStealthAudio, true)

	s.Run("unbound required contract costs points", func() {
		snap := s.checker.CheckSystemHealth()
		s.Equal(75, snap.Score)
		s.True(snap.IsHealthy)
		s.Require().Len(snap.Issues, 1)
		s.Equal(flags.SubsystemEffects, snap.Issues[0].Subsystem)
	})

	s.Run("bound contract clears the issue", func() {
		s.dir["svc.effects"] = true
		snap := s.checker.CheckSystemHealth()
		s.Equal(100, snap.Score)
		s.Equal(BandExcellent, snap.Band())
	})
}

func (s *CheckerSuite) TestFailingFactoryIsMissingService() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(registry.WithLogger(logger))
	s.Require().NoError(registry.RegisterFactory[footsteps](reg, func() footsteps { panic("boom") }))
	checker := NewChecker(s.state,
		WithLogger(logger),
		WithServices(reg, map[flags.Subsystem]registry.Contract{
			flags.SubsystemAudio: registry.ContractFor[footsteps](),
		}),
		WithClock(func() time.Time { return s.now }),
	)
	s.state.SetRegistryEnabled(true)
	s.state.SetUseRegistry(flags.SubsystemAudio, true)

	snap := checker.CheckSystemHealth()
	s.True(snap.Has(IssueMissingService))
	s.Equal(75, snap.Score)
	s.Require().Len(snap.Issues, 1)
	s.Equal(flags.SubsystemAudio, snap.Issues[0].Subsystem)

	s.Run("stays missing on later checks", func() {
		s.Equal(75, checker.CheckSystemHealth().Score)
	})
}

func (s *CheckerSuite) TestRecentRollbackWindow() {
	s.state.SetRegistryEnabled(true)
	s.rollbacks.has = true

	s.Run("inside window", func() {
		s.rollbacks.last = s.now.Add(-DefaultRecentRollbackWindow / 2)
		snap := s.checker.CheckSystemHealth()
		s.Equal(90, snap.Score)
		s.True(snap.Has(IssueRecentRollback))
	})

	s.Run("outside window", func() {
		s.rollbacks.last = s.now.Add(-2 * DefaultRecentRollbackWindow)
		s.Equal(100, s.checker.CheckSystemHealth().Score)
	})
}

func (s *CheckerSuite) TestOpenEmergency() {
	s.state.SetRegistryEnabled(true)
	s.rollbacks.emergency = true
	snap := s.checker.CheckSystemHealth()
	s.Equal(80, snap.Score)
	s.True(snap.Has(IssueUnresolvedEmergency))
}

func (s *CheckerSuite) TestEvaluateDoesNotReadLiveFlags() {
	s.state.SetRegistryEnabled(true)
	snap := s.checker.Evaluate(flags.Defaults())
	s.Equal(80, snap.Score)
}

func TestBandFor(t *testing.T) {
	cases := map[int]Band{100: BandExcellent, 90: BandExcellent, 89: BandAcceptable, 70: BandAcceptable, 69: BandPoor, 0: BandPoor}
	for score, want := range cases {
		if got := BandFor(score); got != want {
			t.Errorf("BandFor(%d) = %s, want %s", score, got, want)
		}
	}
}
