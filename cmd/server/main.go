package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"handoff/internal/platform/config"
	"handoff/internal/platform/logger"
)

// main loads configuration, wires the migration daemon and runs it until
// SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start handoff", "error", err)
		os.Exit(1)
	}
	log.Info("starting handoff",
		"addr", cfg.Server.Addr,
		"state_backend", cfg.State.Backend,
		"audit_sink", cfg.Audit.Sink,
		"monitor", cfg.Monitor.Enabled,
		"auto_advance", cfg.Schedule.AutoAdvance,
	)
	if err := a.run(ctx); err != nil {
		log.Error("handoff stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("handoff stopped")
}
