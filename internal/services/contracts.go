// Package services holds the audio subsystem contracts the migration routes
// and the two implementations of each: the legacy singleton and the
// registry-bound service.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"handoff/internal/flags"
	"handoff/internal/registry"
	dErrors "handoff/pkg/domain-errors"
)

const (
	ImplementationLegacy   = "legacy"
	ImplementationRegistry = "registry"
)

// Cue is the result of triggering a sound through a subsystem.
type Cue struct {
	Subsystem      flags.Subsystem `json:"subsystem"`
	Name           string          `json:"name"`
	Implementation string          `json:"implementation"`
	Location       string          `json:"location,omitempty"`
	At             time.Time       `json:"at"`
}

// Emitter is the behaviour every audio contract shares.
type Emitter interface {
	Trigger(ctx context.Context, name, location string) (Cue, error)
}

// Audio plays one-shot and looping clips.
type Audio interface{ Emitter }

// SpatialAudio positions sources relative to the listener.
type SpatialAudio interface{ Emitter }

// StealthAudio emits the noise events guards react to.
type StealthAudio interface{ Emitter }

// Effects drives reverb, occlusion and filter chains.
type Effects interface{ Emitter }

// AudioUpdate ticks per-frame audio state.
type AudioUpdate interface{ Emitter }

// Contracts maps each subsystem to the registry contract it must bind once
// its flag routes to the registry.
func Contracts() map[flags.Subsystem]registry.Contract {
	return map[flags.Subsystem]registry.Contract{
		flags.SubsystemAudio:        registry.ContractFor[Audio](),
		flags.SubsystemSpatialAudio: registry.ContractFor[SpatialAudio](),
		flags.SubsystemStealthAudio: registry.ContractFor[StealthAudio](),
		flags.SubsystemEffects:      registry.ContractFor[Effects](),
		flags.SubsystemAudioUpdate:  registry.ContractFor[AudioUpdate](),
	}
}

// engine implements every contract; the subsystem and implementation tag
// tell the copies apart.
type engine struct {
	sub            flags.Subsystem
	implementation string
	now            func() time.Time
}

func newEngine(sub flags.Subsystem, implementation string, now func() time.Time) *engine {
	return &engine{sub: sub, implementation: implementation, now: now}
}

func (e *engine) Trigger(ctx context.Context, name, location string) (Cue, error) {
	if err := ctx.Err(); err != nil {
		return Cue{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Cue{}, dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("%s cue name is required", e.sub))
	}
	return Cue{
		Subsystem:      e.sub,
		Name:           name,
		Implementation: e.implementation,
		Location:       location,
		At:             e.now(),
	}, nil
}

// RegisterAll binds lazily constructed registry implementations for every
// subsystem.
func RegisterAll(reg *registry.Registry, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	bind := []func() error{
		func() error {
			return registry.RegisterFactory(reg, func() Audio {
				return newEngine(flags.SubsystemAudio, ImplementationRegistry, now)
			})
		},
		func() error {
			return registry.RegisterFactory(reg, func() SpatialAudio {
				return newEngine(flags.SubsystemSpatialAudio, ImplementationRegistry, now)
			})
		},
		func() error {
			return registry.RegisterFactory(reg, func() StealthAudio {
				return newEngine(flags.SubsystemStealthAudio, ImplementationRegistry, now)
			})
		},
		func() error {
			return registry.RegisterFactory(reg, func() Effects {
				return newEngine(flags.SubsystemEffects, ImplementationRegistry, now)
			})
		},
		func() error {
			return registry.RegisterFactory(reg, func() AudioUpdate {
				return newEngine(flags.SubsystemAudioUpdate, ImplementationRegistry, now)
			})
		},
	}
	for _, fn := range bind {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
