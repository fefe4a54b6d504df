package sentinel

import "errors"

// Sentinel errors for infrastructure facts. State stores and sinks return
// these (optionally wrapped) so services can translate them into domain errors.
//
// - ErrNotFound: key or record does not exist in the backing store
// - ErrCorrupt: a stored value exists but cannot be decoded
// - ErrConflict: a one-way marker was already written
// - ErrInvalidState: the operation does not apply to the current phase
// - ErrUnavailable: backend temporarily unavailable
//
// For validation errors (bad input, unbound contracts), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrCorrupt      = errors.New("corrupt")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
