package state

import (
	"encoding/json"
	"fmt"

	"handoff/pkg/platform/sentinel"
)

// Encode serialises snap for byte-oriented stores.
func Encode(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// Decode parses a stored snapshot, wrapping failures in sentinel.ErrCorrupt.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", sentinel.ErrCorrupt, err)
	}
	if snap.Phase == "" {
		return Snapshot{}, fmt.Errorf("%w: missing phase", sentinel.ErrCorrupt)
	}
	return snap, nil
}
