package flags

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "handoff/pkg/domain-errors"
)

type StateSuite struct {
	suite.Suite
	state  *State
	logBuf *bytes.Buffer
	now    time.Time
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateSuite))
}

func (s *StateSuite) SetupTest() {
	s.logBuf = &bytes.Buffer{}
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.state = New(
		WithLogger(slog.New(slog.NewTextHandler(s.logBuf, nil))),
		WithClock(func() time.Time { return s.now }),
	)
}

func fullRollout() Snapshot {
	snap := Snapshot{
		RegistryEnabled:      true,
		LegacyAccessDisabled: true,
		WarningsEnabled:      true,
		MonitoringEnabled:    true,
		AutoRollbackEnabled:  true,
		UseRegistryFor:       map[Subsystem]bool{},
	}
	for _, sub := range Subsystems() {
		snap.UseRegistryFor[sub] = true
	}
	return snap
}

func (s *StateSuite) TestDefaults() {
	snap := s.state.SnapshotNow()
	s.False(snap.RegistryEnabled)
	s.False(snap.LegacyAccessDisabled)
	s.False(snap.MonitoringEnabled)
	s.Empty(snap.Enabled())
	s.Empty(Validate(snap))
}

func (s *StateSuite) TestSettersDoNotValidate() {
	s.state.SetRegistryEnabled(false)
	s.state.SetUseRegistry(SubsystemAudio, true)
	s.state.SetLegacyAccessDisabled(true)

	snap := s.state.SnapshotNow()
	s.True(snap.UseRegistry(SubsystemAudio))
	s.False(snap.Routes(SubsystemAudio))
	s.True(snap.Inconsistent())
	s.Len(Validate(snap), 3)
}

func (s *StateSuite) TestSnapshotIsDeepCopy() {
	s.state.SetUseRegistry(SubsystemAudio, true)
	snap := s.state.SnapshotNow()
	snap.UseRegistryFor[SubsystemAudio] = false
	snap.UseRegistryFor[SubsystemEffects] = true

	s.True(s.state.UseRegistry(SubsystemAudio))
	s.False(s.state.UseRegistry(SubsystemEffects))
}

func (s *StateSuite) TestApplySnapshot() {
	s.Run("replaces every flag", func() {
		s.state.ApplySnapshot(fullRollout())
		s.True(s.state.SnapshotNow().Equal(fullRollout()))
	})

	s.Run("reset restores defaults", func() {
		s.state.ResetToDefaults()
		s.True(s.state.SnapshotNow().Equal(Defaults()))
	})

	s.Run("caller mutation after apply has no effect", func() {
		snap := fullRollout()
		s.state.ApplySnapshot(snap)
		snap.UseRegistryFor[SubsystemAudio] = false
		s.True(s.state.Routes(SubsystemAudio))
	})
}

func (s *StateSuite) TestApplyIsAtomicForReaders() {
	a := fullRollout()
	b := Defaults()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				s.state.ApplySnapshot(a)
			} else {
				s.state.ApplySnapshot(b)
			}
		}
	})

	for range 5000 {
		snap := s.state.SnapshotNow()
		if snap.RegistryEnabled {
			s.Require().Len(snap.Enabled(), len(Subsystems()))
		} else {
			s.Require().Empty(snap.Enabled())
		}
	}
	close(stop)
	wg.Wait()
}

func (s *StateSuite) TestObservers() {
	s.Run("faulty observers are logged and do not block others", func() {
		var seen []bool
		s.state.Subscribe("panics", func(prev, next Snapshot) error { panic("bad subscriber") })
		s.state.Subscribe("errors", func(prev, next Snapshot) error { return errors.New("refused") })
		s.state.Subscribe("records", func(prev, next Snapshot) error {
			seen = append(seen, next.RegistryEnabled)
			return nil
		})

		s.NotPanics(func() { s.state.SetRegistryEnabled(true) })
		s.Equal([]bool{true}, seen)
		s.True(s.state.RegistryEnabled())
		s.Contains(s.logBuf.String(), "flag observer panicked")
		s.Contains(s.logBuf.String(), "flag observer failed")
	})

	s.Run("unsubscribe stops notifications", func() {
		calls := 0
		unsubscribe := s.state.Subscribe("counter", func(prev, next Snapshot) error {
			calls++
			return nil
		})
		s.state.SetWarningsEnabled(true)
		unsubscribe()
		s.state.SetWarningsEnabled(false)
		s.Equal(1, calls)
	})

	s.Run("observers may read state", func() {
		var routed bool
		unsubscribe := s.state.Subscribe("reader", func(prev, next Snapshot) error {
			routed = s.state.Routes(SubsystemEffects)
			return nil
		})
		defer unsubscribe()
		s.state.SetUseRegistry(SubsystemEffects, true)
		s.True(routed)
	})
}

func (s *StateSuite) TestHistory() {
	s.Run("records diffs with timestamps", func() {
		s.state.SetRegistryEnabled(true)
		s.state.SetUseRegistry(SubsystemAudio, true)

		h := s.state.History()
		s.Require().Len(h, 2)
		s.Equal("registry_enabled", h[0].Flag)
		s.Equal(SubsystemAudio, h[1].Subsystem)
		s.True(h[1].Value)
		s.Equal(s.now, h[1].At)
	})

	s.Run("is bounded", func() {
		for i := range 30 {
			s.state.SetMonitoringEnabled(i%2 == 0)
		}
		s.Len(s.state.History(), historyLimit)
	})

	s.Run("last enabled skips subsystems switched back off", func() {
		s.state.ResetToDefaults()
		s.state.SetUseRegistry(SubsystemAudio, true)
		s.state.SetUseRegistry(SubsystemSpatialAudio, true)
		sub, ok := s.state.LastEnabled()
		s.Require().True(ok)
		s.Equal(SubsystemSpatialAudio, sub)

		s.state.SetUseRegistry(SubsystemSpatialAudio, false)
		sub, ok = s.state.LastEnabled()
		s.Require().True(ok)
		s.Equal(SubsystemAudio, sub)

		s.state.SetUseRegistry(SubsystemAudio, false)
		_, ok = s.state.LastEnabled()
		s.False(ok)
	})
}

func TestParseSubsystem(t *testing.T) {
	s, err := ParseSubsystem(" Spatial-Audio ")
	if err != nil || s != SubsystemSpatialAudio {
		t.Fatalf("expected spatial-audio, got %q (%v)", s, err)
	}
	if _, err := ParseSubsystem("physics"); !dErrors.HasCode(err, dErrors.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
