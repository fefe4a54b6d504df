package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"handoff/internal/admin"
	"handoff/internal/finalize"
	"handoff/internal/flags"
	"handoff/internal/health"
	jwttoken "handoff/internal/jwt_token"
	"handoff/internal/migration"
	"handoff/internal/platform/badger"
	"handoff/internal/platform/config"
	"handoff/internal/platform/httpserver"
	"handoff/internal/platform/kafka"
	"handoff/internal/platform/metrics"
	"handoff/internal/platform/postgres"
	platformredis "handoff/internal/platform/redis"
	"handoff/internal/registry"
	"handoff/internal/rollback"
	"handoff/internal/scheduler"
	"handoff/internal/services"
	"handoff/internal/state"
	badgerstore "handoff/internal/state/store/badger"
	memorystore "handoff/internal/state/store/memory"
	redisstore "handoff/internal/state/store/redis"
	"handoff/internal/telemetry"
	"handoff/internal/trend"
	"handoff/pkg/platform/audit"
	"handoff/pkg/platform/audit/publisher"
	auditkafka "handoff/pkg/platform/audit/store/kafka"
	auditmemory "handoff/pkg/platform/audit/store/memory"
	auditpostgres "handoff/pkg/platform/audit/store/postgres"
	"handoff/pkg/platform/audit/worker"
	"handoff/pkg/platform/httputil"
	adminmw "handoff/pkg/platform/middleware/admin"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// backendCheck is one backend checked by /healthz.
type backendCheck struct {
	name  string
	check func(context.Context) error
}

// app is the wired daemon: every component, the HTTP router and the
// background loops that run beside it.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	promRegistry *prometheus.Registry
	coordinator  *migration.Coordinator
	monitor      *trend.Monitor
	advancer     *scheduler.AutoAdvancer
	forwarder    *worker.Worker
	publisher    *publisher.Publisher
	host         *services.Host
	router       http.Handler

	backends []backendCheck
	closers  []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, promRegistry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.promRegistry)

	stateStore, err := a.openStateStore(ctx)
	if err != nil {
		return nil, err
	}
	auditStore, err := a.openAuditStore(ctx)
	if err != nil {
		return nil, err
	}
	pubOpts := []publisher.Option{
		publisher.WithLogger(logger),
		publisher.WithCircuitBreaker(breakerThreshold, breakerCooldown),
	}
	if cfg.Audit.AsyncBuffer > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer))
	}
	a.publisher = publisher.NewPublisher(auditStore, pubOpts...)

	plan := scheduler.DefaultPlan()
	if cfg.Schedule.PlanFile != "" {
		if plan, err = scheduler.LoadPlan(cfg.Schedule.PlanFile); err != nil {
			return nil, fmt.Errorf("load phase plan: %w", err)
		}
	}

	reg := registry.New(registry.WithLogger(logger))
	if err := services.RegisterAll(reg, nil); err != nil {
		return nil, fmt.Errorf("register services: %w", err)
	}

	flagState := flags.New(flags.WithLogger(logger))
	exportRouting(m, flagState.SnapshotNow())
	flagState.Subscribe("routing-metrics", func(_, next flags.Snapshot) error {
		exportRouting(m, next)
		return nil
	})
	sched, err := scheduler.New(flagState,
		scheduler.WithLogger(logger),
		scheduler.WithPlan(plan),
		scheduler.WithAuditPublisher(a.publisher),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	persister, err := state.NewPersister(stateStore, state.WithLogger(logger), state.WithPlan(plan))
	if err != nil {
		return nil, fmt.Errorf("create state persister: %w", err)
	}
	snap := persister.Load(ctx)

	rb, err := rollback.New(flagState,
		rollback.WithLogger(logger),
		rollback.WithSchedule(sched),
		rollback.WithAuditPublisher(a.publisher),
	)
	if err != nil {
		return nil, fmt.Errorf("create rollback service: %w", err)
	}
	checker := health.NewChecker(flagState,
		health.WithLogger(logger),
		health.WithServices(reg, services.Contracts()),
		health.WithRollbackLog(rb.Log()),
		health.WithRecentRollbackWindow(cfg.Monitor.RecentRollback),
	)
	usage := telemetry.NewRecorder(
		telemetry.WithLogger(logger),
		telemetry.WithWarnings(flagState),
		telemetry.WithMetrics(m),
	)
	progress := telemetry.NewMonitor(flagState, rb.Log())

	gateOpts := []finalize.Option{
		finalize.WithLogger(logger),
		finalize.WithSustain(cfg.Finalize.Sustain),
		finalize.WithThreshold(cfg.Finalize.Threshold),
		finalize.WithAuditPublisher(a.publisher),
	}
	if snap.CleanupCompleted() {
		gateOpts = append(gateOpts, finalize.WithCompleted(snap.CleanupCompletedAt))
	}
	gate, err := finalize.New(progress, checker, flagState, gateOpts...)
	if err != nil {
		return nil, fmt.Errorf("create finalization gate: %w", err)
	}

	a.coordinator, err = migration.New(migration.Deps{
		Flags:     flagState,
		Scheduler: sched,
		Rollback:  rb,
		Health:    checker,
		Usage:     usage,
		Monitor:   progress,
		Gate:      gate,
		State:     persister,
	},
		migration.WithLogger(logger),
		migration.WithMetrics(m),
		migration.WithAuditTrail(a.publisher),
	)
	if err != nil {
		return nil, fmt.Errorf("create coordinator: %w", err)
	}
	if err := a.coordinator.RestorePersisted(ctx, snap); err != nil {
		return nil, fmt.Errorf("restore persisted migration state: %w", err)
	}

	a.monitor, err = trend.New(checker, flagState, a.coordinator,
		trend.WithLogger(logger),
		trend.WithConfig(trend.Config{
			Interval:       cfg.Monitor.Interval,
			HistorySize:    cfg.Monitor.HistorySize,
			Window:         cfg.Monitor.TrendWindow,
			SlopeThreshold: cfg.Monitor.SlopeThreshold,
		}),
		trend.WithHolder(a.coordinator),
		trend.WithObserver(gate),
		trend.WithMetrics(m),
		trend.WithAuditPublisher(a.publisher),
	)
	if err != nil {
		return nil, fmt.Errorf("create trend monitor: %w", err)
	}
	if cfg.Schedule.AutoAdvance {
		a.advancer, err = scheduler.NewAutoAdvancer(a.coordinator, cfg.Schedule.DayDuration,
			scheduler.WithAutoLogger(logger),
			scheduler.WithAutoInterval(cfg.Schedule.AutoAdvanceInterval),
		)
		if err != nil {
			return nil, fmt.Errorf("create auto-advancer: %w", err)
		}
	}

	a.host, err = services.NewHost(flagState, reg, services.WithLogger(logger), services.WithUsage(usage))
	if err != nil {
		return nil, fmt.Errorf("create service host: %w", err)
	}
	a.router = a.routes()
	return a, nil
}

func (a *app) openStateStore(ctx context.Context) (state.Store, error) {
	switch a.cfg.State.Backend {
	case "redis":
		client, err := platformredis.New(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, errors.New("redis state backend needs HANDOFF_REDIS_URL")
		}
		a.backends = append(a.backends, backendCheck{name: "redis", check: client.Health})
		a.closers = append(a.closers, client.Close)
		return redisstore.New(client.Client), nil
	case "badger":
		db, err := badger.Open(a.cfg.Badger, a.logger)
		if err != nil {
			return nil, err
		}
		a.backends = append(a.backends, backendCheck{name: "badger", check: db.Health})
		a.closers = append(a.closers, db.Close)
		return badgerstore.New(db), nil
	default:
		return memorystore.New(), nil
	}
}

// openAuditStore returns the store the publisher writes to. Kafka is fed
// through an in-memory primary and a forwarding worker so the audit
// endpoint can still list recent events.
func (a *app) openAuditStore(ctx context.Context) (audit.Store, error) {
	switch a.cfg.Audit.Sink {
	case "postgres":
		db, err := postgres.Open(ctx, a.cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.backends = append(a.backends, backendCheck{name: "postgres", check: db.PingContext})
		store := auditpostgres.New(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate audit table: %w", err)
		}
		return store, nil
	case "kafka":
		client, err := kafka.NewClient(a.cfg.Kafka)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			client.Close()
			return nil
		})
		if err := kafka.EnsureTopic(ctx, client, a.cfg.Kafka, a.logger); err != nil {
			return nil, err
		}
		a.backends = append(a.backends, backendCheck{name: "kafka", check: func(ctx context.Context) error {
			return kafka.Health(ctx, client)
		}})
		inbox := make(chan audit.Event, max(a.cfg.Audit.AsyncBuffer, 1))
		a.forwarder = worker.NewWorker(auditkafka.New(client, a.cfg.Kafka.Topic), inbox, a.logger)
		return worker.NewTee(auditmemory.NewInMemoryStore(), inbox, a.logger), nil
	default:
		return auditmemory.NewInMemoryStore(), nil
	}
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Get("/healthz", a.handleHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(a.promRegistry, promhttp.HandlerOpts{}))

	var validator adminmw.TokenValidator
	if a.cfg.Server.JWTSigningKey != "" {
		validator = jwttoken.NewService(a.cfg.Server.JWTSigningKey)
	}
	guard := adminmw.RequireOperator(a.cfg.Server.AdminToken, validator, a.logger)
	admin.New(a.coordinator, a.logger, admin.WithGuard(guard)).Register(r)
	services.NewHandler(a.host, a.logger).Register(r)
	return r
}

func (a *app) handleHealthz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status := http.StatusOK
	for _, p := range a.backends {
		if err := p.check(r.Context()); err != nil {
			a.logger.WarnContext(r.Context(), "backend check failed", "backend", p.name, "error", err)
			checks[p.name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[p.name] = "ok"
	}
	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	httputil.WriteJSON(w, status, body)
}

// run serves HTTP and drives the background loops until ctx is cancelled.
func (a *app) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	srv := httpserver.New(a.cfg.Server.Addr, a.router)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, a.cfg.Server.ShutdownGrace, a.logger)
	})
	if a.cfg.Monitor.Enabled {
		g.Go(func() error { return ignoreCanceled(a.monitor.Run(gctx)) })
	}
	if a.advancer != nil {
		g.Go(func() error { return ignoreCanceled(a.advancer.Run(gctx)) })
	}
	if a.forwarder != nil {
		g.Go(func() error { return ignoreCanceled(a.forwarder.Run(gctx)) })
	}
	err := g.Wait()
	a.close()
	return err
}

func (a *app) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	for _, c := range slices.Backward(a.closers) {
		if err := c(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func exportRouting(m *metrics.Metrics, snap flags.Snapshot) {
	for _, sub := range flags.Subsystems() {
		m.SetRouted(string(sub), snap.Routes(sub))
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
