// Package dispatch routes a subsystem call site to either the service
// registry or its legacy singleton, based on the current flags, and reports
// every access to usage telemetry.
package dispatch

import (
	"fmt"
	"log/slog"

	"handoff/internal/flags"
	"handoff/internal/registry"
	dErrors "handoff/pkg/domain-errors"
)

// Flags is the routing view of the flag state.
type Flags interface {
	Routes(sub flags.Subsystem) bool
	LegacyAccessDisabled() bool
}

// UsageRecorder receives one event per resolved access.
type UsageRecorder interface {
	RecordLegacyAccess(sub flags.Subsystem, location string)
	RecordRegistryAccess(sub flags.Subsystem, location string)
}

// Legacy returns the legacy singleton, or false when it does not exist
// (e.g. the scene that owned it has been unloaded).
type Legacy[T any] func() (T, bool)

// Accessor resolves T for one subsystem.
type Accessor[T any] struct {
	sub      flags.Subsystem
	flags    Flags
	registry *registry.Registry
	legacy   Legacy[T]
	usage    UsageRecorder
	logger   *slog.Logger
}

type Option[T any] func(*Accessor[T])

func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(a *Accessor[T]) {
		a.logger = logger
	}
}

// WithUsage reports accesses to recorder.
func WithUsage[T any](recorder UsageRecorder) Option[T] {
	return func(a *Accessor[T]) {
		a.usage = recorder
	}
}

// WithLegacy sets the legacy singleton getter.
func WithLegacy[T any](legacy Legacy[T]) Option[T] {
	return func(a *Accessor[T]) {
		a.legacy = legacy
	}
}

func New[T any](sub flags.Subsystem, state Flags, reg *registry.Registry, opts ...Option[T]) (*Accessor[T], error) {
	if !sub.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("unknown subsystem %q", sub))
	}
	if state == nil || reg == nil {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "flag state and registry are required")
	}
	a := &Accessor[T]{
		sub:      sub,
		flags:    state,
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Subsystem returns the subsystem this accessor serves.
func (a *Accessor[T]) Subsystem() flags.Subsystem {
	return a.sub
}

// Get returns the implementation the flags currently select. location tags
// the call site in telemetry.
//
// A registry-routed subsystem whose contract is unbound falls back to the
// legacy singleton while legacy access is allowed. Once legacy access is
// disabled, an unbound contract is CodeServiceNotRegistered and a subsystem
// still on its legacy path is CodeUnavailable.
func (a *Accessor[T]) Get(location string) (T, error) {
	var zero T
	if a.flags.Routes(a.sub) {
		if svc, ok := registry.Resolve[T](a.registry); ok {
			a.recordRegistry(location)
			return svc, nil
		}
		if a.flags.LegacyAccessDisabled() {
			return zero, dErrors.New(dErrors.CodeServiceNotRegistered,
				fmt.Sprintf("%s routes to the registry but %s is not registered", a.sub, registry.ContractFor[T]()))
		}
		a.logger.Warn("registry binding missing, falling back to legacy singleton",
			"subsystem", a.sub,
			"contract", registry.ContractFor[T](),
			"location", location,
		)
		return a.fromLegacy(location)
	}
	if a.flags.LegacyAccessDisabled() {
		return zero, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("legacy access is disabled and %s is not routed to the registry", a.sub))
	}
	return a.fromLegacy(location)
}

// TryGet is Get for call sites that treat a missing service as optional.
// It returns the zero value and false instead of an error.
func (a *Accessor[T]) TryGet(location string) (T, bool) {
	svc, err := a.Get(location)
	if err != nil {
		a.logger.Debug("service unavailable", "subsystem", a.sub, "location", location, "error", err)
		return svc, false
	}
	return svc, true
}

func (a *Accessor[T]) fromLegacy(location string) (T, error) {
	var zero T
	if a.legacy == nil {
		return zero, dErrors.New(dErrors.CodeServiceNotRegistered,
			fmt.Sprintf("%s has no legacy singleton", a.sub))
	}
	svc, ok := a.legacy()
	if !ok {
		return zero, dErrors.New(dErrors.CodeServiceNotRegistered,
			fmt.Sprintf("legacy singleton for %s is not available", a.sub))
	}
	if a.usage != nil {
		a.usage.RecordLegacyAccess(a.sub, location)
	}
	return svc, nil
}

func (a *Accessor[T]) recordRegistry(location string) {
	if a.usage != nil {
		a.usage.RecordRegistryAccess(a.sub, location)
	}
}
