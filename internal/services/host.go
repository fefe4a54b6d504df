package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"handoff/internal/dispatch"
	"handoff/internal/flags"
	"handoff/internal/registry"
	dErrors "handoff/pkg/domain-errors"
)

var tracer = otel.Tracer("handoff.services")

type getter func(location string) (Emitter, error)

// Host owns one dispatch accessor per subsystem and the legacy singletons
// they fall back to.
type Host struct {
	accessors map[flags.Subsystem]getter
	logger    *slog.Logger
}

type Option func(*hostConfig)

type hostConfig struct {
	logger *slog.Logger
	usage  dispatch.UsageRecorder
	now    func() time.Time
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *hostConfig) {
		c.logger = logger
	}
}

// WithUsage reports every resolved access to recorder.
func WithUsage(recorder dispatch.UsageRecorder) Option {
	return func(c *hostConfig) {
		c.usage = recorder
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *hostConfig) {
		c.now = now
	}
}

// NewHost builds accessors for all subsystems against state and reg.
func NewHost(state dispatch.Flags, reg *registry.Registry, opts ...Option) (*Host, error) {
	cfg := hostConfig{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Host{accessors: make(map[flags.Subsystem]getter, 5), logger: cfg.logger}
	var err error
	if h.accessors[flags.SubsystemAudio], err = accessorFor[Audio](flags.SubsystemAudio, state, reg, cfg); err != nil {
		return nil, err
	}
	if h.accessors[flags.SubsystemSpatialAudio], err = accessorFor[SpatialAudio](flags.SubsystemSpatialAudio, state, reg, cfg); err != nil {
		return nil, err
	}
	if h.accessors[flags.SubsystemStealthAudio], err = accessorFor[StealthAudio](flags.SubsystemStealthAudio, state, reg, cfg); err != nil {
		return nil, err
	}
	if h.accessors[flags.SubsystemEffects], err = accessorFor[Effects](flags.SubsystemEffects, state, reg, cfg); err != nil {
		return nil, err
	}
	if h.accessors[flags.SubsystemAudioUpdate], err = accessorFor[AudioUpdate](flags.SubsystemAudioUpdate, state, reg, cfg); err != nil {
		return nil, err
	}
	return h, nil
}

func accessorFor[T Emitter](sub flags.Subsystem, state dispatch.Flags, reg *registry.Registry, cfg hostConfig) (getter, error) {
	var legacy T
	if v, ok := any(newEngine(sub, ImplementationLegacy, cfg.now)).(T); ok {
		legacy = v
	}
	opts := []dispatch.Option[T]{
		dispatch.WithLogger[T](cfg.logger),
		dispatch.WithLegacy[T](func() (T, bool) { return legacy, true }),
	}
	if cfg.usage != nil {
		opts = append(opts, dispatch.WithUsage[T](cfg.usage))
	}
	a, err := dispatch.New[T](sub, state, reg, opts...)
	if err != nil {
		return nil, err
	}
	return func(location string) (Emitter, error) {
		svc, err := a.Get(location)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}, nil
}

// Trigger resolves sub through its accessor and fires the named cue.
func (h *Host) Trigger(ctx context.Context, sub flags.Subsystem, name, location string) (Cue, error) {
	ctx, span := tracer.Start(ctx, "services.Trigger")
	defer span.End()
	span.SetAttributes(attribute.String("subsystem", string(sub)), attribute.String("location", location))

	sub, err := flags.ParseSubsystem(string(sub))
	if err != nil {
		return Cue{}, err
	}
	get, ok := h.accessors[sub]
	if !ok {
		return Cue{}, dErrors.New(dErrors.CodeInvalidArgument, fmt.Sprintf("subsystem %q is not hosted", sub))
	}
	svc, err := get(location)
	if err != nil {
		span.RecordError(err)
		h.logger.DebugContext(ctx, "subsystem unavailable", "subsystem", sub, "location", location, "error", err)
		return Cue{}, err
	}
	cue, err := svc.Trigger(ctx, name, location)
	if err != nil {
		return Cue{}, err
	}
	span.SetAttributes(attribute.String("implementation", cue.Implementation))
	return cue, nil
}
