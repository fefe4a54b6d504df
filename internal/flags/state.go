// Package flags owns the process-wide feature flag state that decides, per
// subsystem, whether calls go to a legacy singleton or to the service
// registry.
//
// Writers never validate: inconsistent combinations are allowed so the
// health model can detect them. Readers always see a whole snapshot; a
// write swaps a fresh copy in atomically and then notifies observers.
package flags

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// historyLimit bounds the recorded flag changes.
const historyLimit = 10

// Observer is notified after a snapshot has been swapped in. Errors and
// panics are logged and never stop other observers or the writer.
type Observer func(prev, next Snapshot) error

// Change is one flag transition. Subsystem is empty for global switches.
type Change struct {
	Flag      string    `json:"flag"`
	Subsystem Subsystem `json:"subsystem,omitempty"`
	Value     bool      `json:"value"`
	At        time.Time `json:"at"`
}

type namedObserver struct {
	id   uint64
	name string
	fn   Observer
}

// State holds the live snapshot.
type State struct {
	current atomic.Pointer[Snapshot]

	mu        sync.Mutex // serializes writers, guards observers and history
	observers []namedObserver
	nextID    uint64
	history   []Change

	logger *slog.Logger
	now    func() time.Time
}

type Option func(*State)

func WithLogger(logger *slog.Logger) Option {
	return func(s *State) {
		s.logger = logger
	}
}

// WithClock overrides time.Now for change timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// WithInitial seeds the state instead of Defaults.
func WithInitial(snap Snapshot) Option {
	return func(s *State) {
		c := snap.Clone()
		s.current.Store(&c)
	}
}

// New creates a State holding Defaults unless WithInitial is given.
func New(opts ...Option) *State {
	s := &State{
		logger: slog.Default(),
		now:    time.Now,
	}
	d := Defaults()
	s.current.Store(&d)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SnapshotNow returns a deep copy of the current flags.
func (s *State) SnapshotNow() Snapshot {
	return s.current.Load().Clone()
}

// ApplySnapshot replaces every flag at once.
func (s *State) ApplySnapshot(snap Snapshot) {
	next := snap.Clone()
	s.update(func(*Snapshot) Snapshot { return next })
}

// ResetToDefaults applies Defaults.
func (s *State) ResetToDefaults() {
	s.ApplySnapshot(Defaults())
}

func (s *State) SetRegistryEnabled(v bool) {
	s.mutate(func(n *Snapshot) { n.RegistryEnabled = v })
}

func (s *State) SetLegacyAccessDisabled(v bool) {
	s.mutate(func(n *Snapshot) { n.LegacyAccessDisabled = v })
}

func (s *State) SetWarningsEnabled(v bool) {
	s.mutate(func(n *Snapshot) { n.WarningsEnabled = v })
}

func (s *State) SetMonitoringEnabled(v bool) {
	s.mutate(func(n *Snapshot) { n.MonitoringEnabled = v })
}

func (s *State) SetAutoRollbackEnabled(v bool) {
	s.mutate(func(n *Snapshot) { n.AutoRollbackEnabled = v })
}

// SetUseRegistry flips a single subsystem flag.
func (s *State) SetUseRegistry(sub Subsystem, v bool) {
	s.mutate(func(n *Snapshot) { n.UseRegistryFor[sub] = v })
}

func (s *State) RegistryEnabled() bool      { return s.current.Load().RegistryEnabled }
func (s *State) LegacyAccessDisabled() bool { return s.current.Load().LegacyAccessDisabled }
func (s *State) WarningsEnabled() bool      { return s.current.Load().WarningsEnabled }
func (s *State) MonitoringEnabled() bool    { return s.current.Load().MonitoringEnabled }
func (s *State) AutoRollbackEnabled() bool  { return s.current.Load().AutoRollbackEnabled }

// UseRegistry reports the raw flag for sub.
func (s *State) UseRegistry(sub Subsystem) bool {
	return s.current.Load().UseRegistry(sub)
}

// Routes reports whether sub is effectively routed to the registry.
func (s *State) Routes(sub Subsystem) bool {
	return s.current.Load().Routes(sub)
}

// Subscribe registers an observer and returns a function that removes it.
func (s *State) Subscribe(name string, fn Observer) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, namedObserver{id: id, name: name, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(o namedObserver) bool { return o.id == id })
	}
}

// History returns recorded changes, oldest first.
func (s *State) History() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// LastEnabled returns the subsystem most recently switched on that is still on.
func (s *State) LastEnabled() (Subsystem, bool) {
	cur := s.current.Load()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		c := s.history[i]
		if c.Subsystem != "" && c.Value && cur.UseRegistryFor[c.Subsystem] {
			return c.Subsystem, true
		}
	}
	return "", false
}

func (s *State) mutate(fn func(*Snapshot)) {
	s.update(func(prev *Snapshot) Snapshot {
		next := prev.Clone()
		fn(&next)
		return next
	})
}

func (s *State) update(build func(prev *Snapshot) Snapshot) {
	s.mu.Lock()
	prev := s.current.Load()
	next := build(prev)
	s.current.Store(&next)
	s.record(diff(*prev, next, s.now()))
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		s.safeInvoke(o, *prev, next)
	}
}

func (s *State) record(changes []Change) {
	s.history = append(s.history, changes...)
	if over := len(s.history) - historyLimit; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}
}

func (s *State) safeInvoke(o namedObserver, prev, next Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("flag observer panicked", "observer", o.name, "panic", fmt.Sprint(r))
		}
	}()
	if err := o.fn(prev.Clone(), next.Clone()); err != nil {
		s.logger.Error("flag observer failed", "observer", o.name, "error", err)
	}
}

func diff(prev, next Snapshot, at time.Time) []Change {
	var out []Change
	global := []struct {
		name     string
		was, now bool
	}{
		{"registry_enabled", prev.RegistryEnabled, next.RegistryEnabled},
		{"legacy_access_disabled", prev.LegacyAccessDisabled, next.LegacyAccessDisabled},
		{"warnings_enabled", prev.WarningsEnabled, next.WarningsEnabled},
		{"monitoring_enabled", prev.MonitoringEnabled, next.MonitoringEnabled},
		{"auto_rollback_enabled", prev.AutoRollbackEnabled, next.AutoRollbackEnabled},
	}
	for _, g := range global {
		if g.was != g.now {
			out = append(out, Change{Flag: g.name, Value: g.now, At: at})
		}
	}

	subs := make([]Subsystem, 0, len(prev.UseRegistryFor)+len(next.UseRegistryFor))
	for sub := range prev.UseRegistryFor {
		subs = append(subs, sub)
	}
	for sub := range next.UseRegistryFor {
		if !slices.Contains(subs, sub) {
			subs = append(subs, sub)
		}
	}
	slices.SortFunc(subs, func(a, b Subsystem) int { return rolloutIndex(a) - rolloutIndex(b) })
	for _, sub := range subs {
		if prev.UseRegistryFor[sub] != next.UseRegistryFor[sub] {
			out = append(out, Change{Flag: "use_registry", Subsystem: sub, Value: next.UseRegistryFor[sub], At: at})
		}
	}
	return out
}
