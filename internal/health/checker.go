// Package health scores the migration's configuration.
//
// A check starts at 100 and subtracts a fixed penalty for each distinct
// issue class, floored at 0. Scores of 70 and above are healthy.
package health

import (
	"fmt"
	"log/slog"
	"time"

	"handoff/internal/flags"
	"handoff/internal/registry"
)

// DefaultRecentRollbackWindow is how long a rollback keeps costing points.
const DefaultRecentRollbackWindow = 5 * time.Minute

// SnapshotSource exposes the live flag snapshot.
type SnapshotSource interface {
	SnapshotNow() flags.Snapshot
}

// ServiceDirectory resolves a contract, running a pending factory if needed.
// A binding whose factory fails reports false.
type ServiceDirectory interface {
	Lookup(contract registry.Contract) (any, bool)
}

// RollbackLog exposes the rollback facts a health check needs.
type RollbackLog interface {
	LastRollback() (time.Time, bool)
	HasOpenEmergency() bool
}

// Checker runs the consistency battery.
type Checker struct {
	flags     SnapshotSource
	services  ServiceDirectory
	required  map[flags.Subsystem]registry.Contract
	rollbacks RollbackLog
	window    time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Checker)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithServices enables the missing-service check: every subsystem whose
// flag is on must have its contract resolvable in dir.
func WithServices(dir ServiceDirectory, required map[flags.Subsystem]registry.Contract) Option {
	return func(c *Checker) {
		c.services = dir
		c.required = required
	}
}

// WithRollbackLog enables the recent-rollback and emergency checks.
func WithRollbackLog(log RollbackLog) Option {
	return func(c *Checker) {
		c.rollbacks = log
	}
}

func WithRecentRollbackWindow(d time.Duration) Option {
	return func(c *Checker) {
		c.window = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

// NewChecker creates a checker over src.
func NewChecker(src SnapshotSource, opts ...Option) *Checker {
	c := &Checker{
		flags:  src,
		window: DefaultRecentRollbackWindow,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckSystemHealth evaluates the current flags.
func (c *Checker) CheckSystemHealth() Snapshot {
	return c.Evaluate(c.flags.SnapshotNow())
}

// Evaluate scores an arbitrary snapshot against the checker's collaborators.
func (c *Checker) Evaluate(snap flags.Snapshot) Snapshot {
	now := c.now()
	var issues []Issue

	issues = append(issues, inconsistencies(snap)...)
	if !snap.RegistryEnabled {
		issues = append(issues, Issue{Class: IssueRegistryDisabled, Detail: "service registry is disabled"})
	}
	if snap.LegacyAccessDisabled && !snap.WarningsEnabled {
		issues = append(issues, Issue{Class: IssueWarningsSuppressed, Detail: "legacy access disabled with deprecation warnings off"})
	}
	if c.services != nil {
		for _, sub := range snap.Enabled() {
			contract, ok := c.required[sub]
			if !ok {
				continue
			}
			if svc, ok := c.services.Lookup(contract); !ok || svc == nil {
				issues = append(issues, Issue{
					Class:     IssueMissingService,
					Subsystem: sub,
					Detail:    fmt.Sprintf("%s is flagged on but %s does not resolve", sub, contract),
				})
			}
		}
	}
	if c.rollbacks != nil {
		if at, ok := c.rollbacks.LastRollback(); ok && now.Sub(at) < c.window {
			issues = append(issues, Issue{
				Class:  IssueRecentRollback,
				Detail: fmt.Sprintf("rollback %s ago", now.Sub(at).Round(time.Second)),
			})
		}
		if c.rollbacks.HasOpenEmergency() {
			issues = append(issues, Issue{Class: IssueUnresolvedEmergency, Detail: "an emergency is open and unresolved"})
		}
	}

	result := Snapshot{Timestamp: now, Issues: issues}
	result.Score = score(result)
	result.IsHealthy = result.Score >= HealthyThreshold

	if !result.IsHealthy {
		c.logger.Warn("system health below threshold",
			"score", result.Score,
			"issues", result.Classes(),
		)
	} else {
		c.logger.Debug("system health checked", "score", result.Score, "issues", len(issues))
	}
	return result
}

func inconsistencies(snap flags.Snapshot) []Issue {
	if snap.RegistryEnabled {
		return nil
	}
	var out []Issue
	for _, sub := range snap.Enabled() {
		out = append(out, Issue{
			Class:     IssueInconsistentConfiguration,
			Subsystem: sub,
			Detail:    fmt.Sprintf("%s routes to the registry while the registry is disabled", sub),
		})
	}
	if snap.LegacyAccessDisabled {
		out = append(out, Issue{
			Class:  IssueInconsistentConfiguration,
			Detail: "legacy access disabled while the registry is disabled",
		})
	}
	return out
}

func score(s Snapshot) int {
	total := 100
	for _, class := range s.Classes() {
		total -= class.Penalty()
	}
	return max(total, 0)
}
