package telemetry

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"handoff/internal/flags"
)

type staticWarnings bool

func (w staticWarnings) WarningsEnabled() bool { return bool(w) }

type countingMetrics struct {
	mu    sync.Mutex
	calls map[string]int
}

func (m *countingMetrics) IncrementAccess(subsystem, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[subsystem+"/"+kind]++
}

// =============================================================================
// Recorder Test Suite
// =============================================================================

type RecorderSuite struct {
	suite.Suite
	rec     *Recorder
	logBuf  *bytes.Buffer
	metrics *countingMetrics
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.logBuf = &bytes.Buffer{}
	s.metrics = &countingMetrics{calls: map[string]int{}}
	s.rec = NewRecorder(
		WithLogger(slog.New(slog.NewTextHandler(s.logBuf, nil))),
		WithMetrics(s.metrics),
	)
}

func (s *RecorderSuite) TestRecord() {
	s.Run("counts per subsystem and kind", func() {
		s.rec.RecordLegacyAccess(flags.SubsystemAudio, "PlayerController.Footstep")
		s.rec.RecordLegacyAccess(flags.SubsystemAudio, "PlayerController.Footstep")
		s.rec.RecordRegistryAccess(flags.SubsystemAudio, "GuardAI.Alert")

		st := s.rec.Stats(flags.SubsystemAudio)
		s.Equal(uint64(2), st.LegacyCount)
		s.Equal(uint64(1), st.RegistryCount)
		s.Equal("GuardAI.Alert", st.LastLocation)
		s.False(st.LastAccess.IsZero())
		s.Equal(2, s.metrics.calls["audio/legacy"])
		s.Equal(1, s.metrics.calls["audio/registry"])
	})

	s.Run("empty subsystem or location is ignored", func() {
		s.NotPanics(func() {
			s.rec.RecordLegacyAccess("", "somewhere")
			s.rec.RecordRegistryAccess(flags.SubsystemEffects, "")
		})
		s.Equal(uint64(0), s.rec.Stats(flags.SubsystemEffects).Total())
		s.Equal(uint64(0), s.rec.Stats("").Total())
	})

	s.Run("unseen subsystem reports zero", func() {
		s.Equal(UsageStats{Subsystem: flags.SubsystemAudioUpdate}, s.rec.Stats(flags.SubsystemAudioUpdate))
	})

	s.Run("reset drops counters and events", func() {
		s.rec.ResetStatistics()
		s.Empty(s.rec.AllStats())
		s.Empty(s.rec.RecentEvents())
	})
}

func (s *RecorderSuite) TestLegacyWarnings() {
	s.Run("silent when warnings are off", func() {
		rec := NewRecorder(WithLogger(slog.New(slog.NewTextHandler(s.logBuf, nil))), WithWarnings(staticWarnings(false)))
		rec.RecordLegacyAccess(flags.SubsystemAudio, "Menu.Click")
		s.NotContains(s.logBuf.String(), "legacy singleton access")
	})

	s.Run("warns when warnings are on", func() {
		rec := NewRecorder(WithLogger(slog.New(slog.NewTextHandler(s.logBuf, nil))), WithWarnings(staticWarnings(true)))
		rec.RecordLegacyAccess(flags.SubsystemAudio, "Menu.Click")
		rec.RecordRegistryAccess(flags.SubsystemAudio, "Menu.Hover")
		s.Equal(1, strings.Count(s.logBuf.String(), "legacy singleton access"))
		s.Contains(s.logBuf.String(), "location=Menu.Click")
	})
}

func (s *RecorderSuite) TestMigrated() {
	s.Run("no registry traffic is not migrated", func() {
		s.False(s.rec.Migrated(flags.SubsystemEffects))
	})

	s.Run("legacy trickle is tolerated", func() {
		for range 200 {
			s.rec.RecordRegistryAccess(flags.SubsystemSpatialAudio, "Listener.Update")
		}
		s.rec.RecordLegacyAccess(flags.SubsystemSpatialAudio, "OldCutscene")
		s.True(s.rec.Migrated(flags.SubsystemSpatialAudio))
	})

	s.Run("heavy legacy traffic is not migrated", func() {
		for range 10 {
			s.rec.RecordRegistryAccess(flags.SubsystemStealthAudio, "Guard.Hear")
			s.rec.RecordLegacyAccess(flags.SubsystemStealthAudio, "Guard.HearLegacy")
		}
		s.False(s.rec.Migrated(flags.SubsystemStealthAudio))
	})
}

func (s *RecorderSuite) TestRecentEventsAreBounded() {
	for i := range 250 {
		s.rec.RecordRegistryAccess(flags.SubsystemEffects, fmt.Sprintf("spawn.%d", i))
	}
	events := s.rec.RecentEvents()
	s.Len(events, DefaultRecentEvents)
	s.Equal("spawn.150", events[0].Location)
	s.Equal("spawn.249", events[len(events)-1].Location)
	s.Equal(uint64(250), s.rec.Stats(flags.SubsystemEffects).RegistryCount)
}

func (s *RecorderSuite) TestConcurrentRecordingLosesNothing() {
	rec := NewRecorder(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 1000 {
				rec.RecordLegacyAccess(flags.SubsystemAudio, "a")
				rec.RecordRegistryAccess(flags.SubsystemAudio, "b")
			}
		})
	}
	wg.Wait()
	st := rec.Stats(flags.SubsystemAudio)
	s.Equal(uint64(8000), st.LegacyCount)
	s.Equal(uint64(8000), st.RegistryCount)
}

func (s *RecorderSuite) TestStressStaysBoundedAndFast() {
	rec := NewRecorder(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithWarnings(staticWarnings(false)))
	subs := flags.Subsystems()

	const events = 100_000
	start := time.Now()
	for i := range events {
		sub := subs[i%len(subs)]
		if i%3 == 0 {
			rec.RecordLegacyAccess(sub, "stress.legacy")
		} else {
			rec.RecordRegistryAccess(sub, "stress.registry")
		}
	}
	perEvent := time.Since(start) / events

	s.Less(perEvent, time.Millisecond)
	s.Len(rec.AllStats(), len(subs))
	s.Equal(DefaultRecentEvents, len(rec.RecentEvents()))

	var total uint64
	for _, st := range rec.AllStats() {
		total += st.Total()
	}
	s.Equal(uint64(events), total)
}

func TestEventRing(t *testing.T) {
	ring := NewEventRing(3)
	for i := range 5 {
		ring.Add(UsageEvent{Location: fmt.Sprint(i)})
	}
	got := ring.Snapshot()
	if len(got) != 3 || got[0].Location != "2" || got[2].Location != "4" {
		t.Fatalf("unexpected ring contents: %+v", got)
	}
	if ring.Dropped() != 2 {
		t.Fatalf("expected 2 dropped, got %d", ring.Dropped())
	}
	ring.Reset()
	if ring.Len() != 0 {
		t.Fatalf("expected empty ring after reset")
	}
}
