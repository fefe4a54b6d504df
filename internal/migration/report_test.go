package migration

import (
	"handoff/internal/flags"
	"handoff/internal/scheduler"
)

func (s *CoordinatorSuite) TestReportBeforeStart() {
	report := s.coord.Report(s.ctx)
	s.Contains(report, "Migration report (2026-07-01T10:00:00Z)")
	s.Contains(report, "not_started")
	s.Contains(report, "Schedule has not been started.")
	s.Contains(report, "Finalization: blocked")
}

func (s *CoordinatorSuite) TestReportMidRollout() {
	_, err := s.coord.AdvanceTo(s.ctx, scheduler.PhaseDay3)
	s.Require().NoError(err)
	s.usage.RecordRegistryAccess(flags.SubsystemAudio, "menu.go:12")
	_, err = s.coord.RollbackSpecificService(s.ctx, flags.SubsystemSpatialAudio, "spatial errors")
	s.Require().NoError(err)

	report := s.coord.Report(s.ctx)
	s.Contains(report, "day3 (Spatial Audio Migration)")
	s.Contains(report, "60%")
	s.Contains(report, "20%")
	s.Contains(report, "subsystem: spatial errors")
	s.Contains(report, "recent_rollback")
	s.Regexp(`audio\s+registry\s+legacy=0\s+registry=1\s+migrated`, report)
	s.Regexp(`spatial-audio\s+legacy\s+legacy=0\s+registry=0`, report)
	s.NotContains(report, "Schedule has not been started.")
}

func (s *CoordinatorSuite) TestReportAfterFinalization() {
	_, err := s.coord.AdvanceTo(s.ctx, scheduler.PhaseCompleted)
	s.Require().NoError(err)
	s.gate.ObserveHealth(s.checker.CheckSystemHealth())
	s.now = s.now.Add(s.gate.Check().Required)
	_, err = s.coord.Finalize(s.ctx)
	s.Require().NoError(err)

	s.Contains(s.coord.Report(s.ctx), "Finalization: completed")
}
