package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	platformbadger "handoff/internal/platform/badger"
	"handoff/internal/state"
	"handoff/pkg/platform/sentinel"
)

const defaultKey = "handoff:migration:state"

// Store keeps the snapshot under one key of an embedded badger database.
type Store struct {
	db  *platformbadger.DB
	key []byte
}

type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = []byte(key)
	}
}

func New(db *platformbadger.DB, opts ...Option) *Store {
	s := &Store{db: db, key: []byte(defaultKey)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Load(ctx context.Context) (state.Snapshot, error) {
	var data []byte
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return state.Snapshot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("read migration state: %w", err)
	}
	return state.Decode(data)
}

func (s *Store) Save(ctx context.Context, snap state.Snapshot) error {
	data, err := state.Encode(snap)
	if err != nil {
		return fmt.Errorf("encode migration state: %w", err)
	}
	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	})
	if err != nil {
		return fmt.Errorf("write migration state: %w", err)
	}
	return nil
}

// Raw overwrites the stored bytes, e.g. to simulate corruption.
func (s *Store) Raw(ctx context.Context, data []byte) error {
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	})
}
