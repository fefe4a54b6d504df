// Package telemetry counts legacy and registry accesses per subsystem and
// derives the rollout's migration progress and safety signal.
//
// Recording never fails and never panics: empty subsystems or locations
// are ignored. Memory is bounded by the number of subsystems plus a fixed
// ring of recent events.
package telemetry

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"handoff/internal/flags"
)

const (
	// DefaultRecentEvents is the diagnostic window of retained events.
	DefaultRecentEvents = 100
	// DefaultLegacyTrickle is the legacy share tolerated for a migrated subsystem.
	DefaultLegacyTrickle = 0.01
)

// WarningSource tells the recorder whether deprecation warnings are on.
type WarningSource interface {
	WarningsEnabled() bool
}

// AccessMetrics receives every recorded access.
type AccessMetrics interface {
	IncrementAccess(subsystem string, kind string)
}

type lastAccess struct {
	location string
	at       time.Time
}

type counter struct {
	legacy   atomic.Uint64
	registry atomic.Uint64
	last     atomic.Pointer[lastAccess]
}

// Recorder aggregates usage.
type Recorder struct {
	counters sync.Map // flags.Subsystem -> *counter
	recent   *EventRing
	trickle  float64

	warnings WarningSource
	metrics  AccessMetrics
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithWarnings logs each legacy access while the source reports warnings on.
func WithWarnings(src WarningSource) Option {
	return func(r *Recorder) {
		r.warnings = src
	}
}

func WithMetrics(m AccessMetrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func WithRecentEvents(capacity int) Option {
	return func(r *Recorder) {
		r.recent = NewEventRing(capacity)
	}
}

func WithLegacyTrickle(ratio float64) Option {
	return func(r *Recorder) {
		r.trickle = ratio
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder creates a recorder with a 100-event diagnostic window.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		recent:  NewEventRing(DefaultRecentEvents),
		trickle: DefaultLegacyTrickle,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordLegacyAccess counts a call served by a legacy singleton.
func (r *Recorder) RecordLegacyAccess(sub flags.Subsystem, location string) {
	r.record(sub, AccessLegacy, location)
}

// RecordRegistryAccess counts a call served through the registry.
func (r *Recorder) RecordRegistryAccess(sub flags.Subsystem, location string) {
	r.record(sub, AccessRegistry, location)
}

func (r *Recorder) record(sub flags.Subsystem, kind AccessKind, location string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("usage recording fault", "subsystem", sub, "panic", fmt.Sprint(rec))
		}
	}()
	if sub == "" || location == "" {
		return
	}

	c := r.counterFor(sub)
	at := r.now()
	if kind == AccessLegacy {
		c.legacy.Add(1)
	} else {
		c.registry.Add(1)
	}
	c.last.Store(&lastAccess{location: location, at: at})
	r.recent.Add(UsageEvent{Subsystem: sub, Kind: kind, Location: location, At: at})

	if r.metrics != nil {
		r.metrics.IncrementAccess(string(sub), string(kind))
	}
	if kind == AccessLegacy && r.warnings != nil && r.warnings.WarningsEnabled() {
		r.logger.Warn("legacy singleton access",
			"subsystem", sub,
			"location", location,
		)
	}
}

func (r *Recorder) counterFor(sub flags.Subsystem) *counter {
	if v, ok := r.counters.Load(sub); ok {
		return v.(*counter)
	}
	v, _ := r.counters.LoadOrStore(sub, &counter{})
	return v.(*counter)
}

// Stats returns usage for sub. Unseen subsystems report zero counts.
func (r *Recorder) Stats(sub flags.Subsystem) UsageStats {
	out := UsageStats{Subsystem: sub}
	v, ok := r.counters.Load(sub)
	if !ok {
		return out
	}
	c := v.(*counter)
	out.LegacyCount = c.legacy.Load()
	out.RegistryCount = c.registry.Load()
	if last := c.last.Load(); last != nil {
		out.LastLocation = last.location
		out.LastAccess = last.at
	}
	return out
}

// AllStats returns usage for every subsystem seen so far, in rollout order.
func (r *Recorder) AllStats() []UsageStats {
	var subs []flags.Subsystem
	r.counters.Range(func(k, _ any) bool {
		subs = append(subs, k.(flags.Subsystem))
		return true
	})
	order := flags.Subsystems()
	slices.SortFunc(subs, func(a, b flags.Subsystem) int {
		ia, ib := slices.Index(order, a), slices.Index(order, b)
		if ia < 0 {
			ia = len(order)
		}
		if ib < 0 {
			ib = len(order)
		}
		if ia != ib {
			return ia - ib
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	out := make([]UsageStats, 0, len(subs))
	for _, sub := range subs {
		out = append(out, r.Stats(sub))
	}
	return out
}

// Migrated reports whether sub has registry traffic and at most a trickle of
// legacy calls.
func (r *Recorder) Migrated(sub flags.Subsystem) bool {
	st := r.Stats(sub)
	return st.RegistryCount > 0 && st.LegacyShare() <= r.trickle
}

// RecentEvents returns the diagnostic window, oldest first.
func (r *Recorder) RecentEvents() []UsageEvent {
	return r.recent.Snapshot()
}

// ResetStatistics drops all counters and recent events.
func (r *Recorder) ResetStatistics() {
	r.counters.Clear()
	r.recent.Reset()
}
