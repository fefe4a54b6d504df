package memory

import (
	"context"
	"sync"

	"handoff/internal/state"
	"handoff/pkg/platform/sentinel"
)

// Store keeps the encoded snapshot in memory, for tests and single-run
// deployments that do not need restarts.
type Store struct {
	mu   sync.RWMutex
	data []byte
}

func New() *Store {
	return &Store{}
}

func (s *Store) Load(_ context.Context) (state.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return state.Snapshot{}, sentinel.ErrNotFound
	}
	return state.Decode(s.data)
}

func (s *Store) Save(_ context.Context, snap state.Snapshot) error {
	data, err := state.Encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

// Raw overwrites the stored bytes, e.g. to simulate corruption.
func (s *Store) Raw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}
