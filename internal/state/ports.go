package state

import "context"

// Store persists a single Snapshot. Load returns sentinel.ErrNotFound when
// nothing has been saved and sentinel.ErrCorrupt when the stored value
// cannot be decoded.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}
