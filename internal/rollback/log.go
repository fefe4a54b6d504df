package rollback

import (
	"slices"
	"sync"
	"time"

	"handoff/internal/flags"
)

// Log is the append-only rollback history.
type Log struct {
	mu      sync.RWMutex
	records []Record
	// floor is the index pending() never looks below; seeded records sit under it.
	floor int
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) append(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

// Seed adds a record loaded from persisted state. Seeded rollbacks count
// toward history and health but cannot be restored from, since the flags
// they replaced were not persisted.
func (l *Log) Seed(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
	l.floor = len(l.records)
}

// History returns every record, most recent last.
func (l *Log) History() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = r
		out[i].Previous = r.Previous.Clone()
		out[i].Resulting = r.Resulting.Clone()
		out[i].Disabled = slices.Clone(r.Disabled)
		out[i].Restored = slices.Clone(r.Restored)
	}
	return out
}

// Count returns the number of rollbacks (global and scoped).
func (l *Log) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, r := range l.records {
		if r.IsRollback() {
			n++
		}
	}
	return n
}

// Last returns the most recent rollback record.
func (l *Log) Last() (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].IsRollback() {
			return l.records[i], true
		}
	}
	return Record{}, false
}

// LastRollback returns when the most recent rollback happened.
func (l *Log) LastRollback() (time.Time, bool) {
	r, ok := l.Last()
	return r.Timestamp, ok
}

// HasOpenEmergency reports whether an emergency record is unresolved.
func (l *Log) HasOpenEmergency() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.ContainsFunc(l.records, func(r Record) bool {
		return r.Scope == ScopeEmergency && !r.Resolved
	})
}

func (l *Log) resolveEmergencies() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for i := range l.records {
		if l.records[i].Scope == ScopeEmergency && !l.records[i].Resolved {
			l.records[i].Resolved = true
			n++
		}
	}
	return n
}

// pending returns the rollbacks since the last recovery, oldest first, and
// marks nothing. Subsystems appear once, in rollout order.
func (l *Log) pending() ([]Record, []flags.Subsystem) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := l.floor
	for i := len(l.records) - 1; i >= l.floor; i-- {
		if l.records[i].Scope == ScopeRecovery {
			start = i + 1
			break
		}
	}
	var recs []Record
	var subs []flags.Subsystem
	for _, r := range l.records[start:] {
		if !r.IsRollback() {
			continue
		}
		recs = append(recs, r)
		for _, sub := range r.Disabled {
			if !slices.Contains(subs, sub) {
				subs = append(subs, sub)
			}
		}
	}
	order := flags.Subsystems()
	slices.SortFunc(subs, func(a, b flags.Subsystem) int {
		return slices.Index(order, a) - slices.Index(order, b)
	})
	return recs, subs
}
