package trend

import (
	"sync"

	"handoff/internal/health"
)

// History is a fixed-capacity ring of health samples.
type History struct {
	mu    sync.RWMutex
	buf   []health.Snapshot
	next  int
	count int
}

func NewHistory(capacity int) *History {
	return &History{buf: make([]health.Snapshot, capacity)}
}

// Add stores s, evicting the oldest sample when full.
func (h *History) Add(s health.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

// Samples returns the retained samples, oldest first.
func (h *History) Samples() []health.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]health.Snapshot, 0, h.count)
	start := (h.next - h.count + len(h.buf)) % len(h.buf)
	for i := range h.count {
		out = append(out, h.buf[(start+i)%len(h.buf)])
	}
	return out
}

// Last returns the n most recent scores, oldest first.
func (h *History) Last(n int) []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n = min(n, h.count)
	out := make([]int, n)
	for i := range n {
		idx := (h.next - n + i + 2*len(h.buf)) % len(h.buf)
		out[i] = h.buf[idx].Score
	}
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Degrading reports whether scores strictly decrease sample over sample and
// the average drop per sample is at least slope.
func Degrading(scores []int, slope float64) bool {
	if len(scores) < 2 {
		return false
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] >= scores[i-1] {
			return false
		}
	}
	drop := float64(scores[0]-scores[len(scores)-1]) / float64(len(scores)-1)
	return drop >= slope
}
