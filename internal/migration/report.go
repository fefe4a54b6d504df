package migration

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"handoff/internal/scheduler"
)

// Report renders a multi-line, human readable summary of the migration.
func (c *Coordinator) Report(ctx context.Context) string {
	_, span := tracer.Start(ctx, "migration.Report")
	defer span.End()

	st := c.Status(ctx)
	var b strings.Builder
	fmt.Fprintf(&b, "Migration report (%s)\n", c.now().UTC().Format(time.RFC3339))

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	phase := string(st.Schedule.Phase)
	if st.Schedule.Name != "" {
		phase = fmt.Sprintf("%s (%s)", st.Schedule.Phase, st.Schedule.Name)
	}
	fmt.Fprintf(w, "Phase:\t%s\n", phase)
	if !st.Schedule.StartedAt.IsZero() {
		fmt.Fprintf(w, "Started:\t%s\n", st.Schedule.StartedAt.UTC().Format(time.RFC3339))
	}
	if st.Schedule.Next != "" {
		fmt.Fprintf(w, "Next phase:\t%s\n", st.Schedule.Next)
	}
	fmt.Fprintf(w, "Schedule progress:\t%.0f%%\n", st.Schedule.Progress)
	fmt.Fprintf(w, "Migration progress:\t%.0f%%\n", st.Migration.MigrationProgress)
	hold := "none"
	if st.Schedule.Held {
		hold = st.Schedule.HoldReason
	}
	fmt.Fprintf(w, "Hold:\t%s\n", hold)
	fmt.Fprintf(w, "Health:\t%d (%s)\n", st.Health.Score, st.Band)
	fmt.Fprintf(w, "Safe:\t%s\n", yesNo(st.Migration.Safe))
	fmt.Fprintf(w, "Open emergency:\t%s\n", yesNo(st.OpenEmergency))
	rollbacks := fmt.Sprintf("%d", st.Rollbacks)
	if st.LastRollback != nil {
		rollbacks += fmt.Sprintf(" (last %s, %s: %s)",
			st.LastRollback.Timestamp.UTC().Format(time.RFC3339), st.LastRollback.Scope, st.LastRollback.Reason)
	}
	fmt.Fprintf(w, "Rollbacks:\t%s\n", rollbacks)
	_ = w.Flush()

	if len(st.Health.Issues) > 0 {
		b.WriteString("Issues:\n")
		for _, issue := range st.Health.Issues {
			fmt.Fprintf(&b, "  - %s: %s\n", issue.Class, issue.Detail)
		}
	}
	if len(st.Migration.Problems) > 0 {
		b.WriteString("Configuration problems:\n")
		for _, p := range st.Migration.Problems {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}

	b.WriteString("Subsystems:\n")
	w = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, sub := range c.deps.Monitor.Subsystems() {
		route := "legacy"
		if st.Flags.Routes(sub) {
			route = "registry"
		}
		u := c.deps.Usage.Stats(sub)
		migrated := ""
		if c.deps.Usage.Migrated(sub) {
			migrated = "migrated"
		}
		fmt.Fprintf(w, "  %s\t%s\tlegacy=%d\tregistry=%d\t%s\n", sub, route, u.LegacyCount, u.RegistryCount, migrated)
	}
	_ = w.Flush()

	switch {
	case st.Finalized():
		fmt.Fprintf(&b, "Finalization: completed %s\n", st.FinalizedAt.UTC().Format(time.RFC3339))
	case st.Readiness.Ready:
		b.WriteString("Finalization: ready\n")
	default:
		fmt.Fprintf(&b, "Finalization: blocked (%s)\n", strings.Join(st.Readiness.Blockers, "; "))
	}
	if st.Schedule.Phase == scheduler.PhaseNotStarted && st.Rollbacks == 0 {
		b.WriteString("Schedule has not been started.\n")
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
