// Command shuttle runs one batch pass: every file found under the
// configured source directory is quarantined, scanned, and routed to the
// destination or the hazard archive, then the process exits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/glimps-re/shuttle/internal/config"
	"github.com/glimps-re/shuttle/internal/logging"
	"github.com/glimps-re/shuttle/internal/metrics"
	"github.com/glimps-re/shuttle/internal/notify"
	"github.com/glimps-re/shuttle/internal/opsserver"
	"github.com/glimps-re/shuttle/internal/orchestrator"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shuttle: loading configuration:", err)
		return 1
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "shuttle: invalid configuration:", err)
		return 1
	}

	errTracker := notify.NewErrorTracker()
	logger := logging.New(cfg, os.Stdout, errTracker, notify.ErrorTypeStartup)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ops *opsserver.Server
	var collector *metrics.Collector
	if cfg.OpsListenAddr != "" {
		registry := prometheus.NewRegistry()
		collector = metrics.New("shuttle")
		registry.MustRegister(collector)
		ops = opsserver.New(cfg.OpsListenAddr, registry, logger)
		ops.Start()
		defer ops.Shutdown(context.Background())
	}

	if err := orchestrator.Run(ctx, cfg, logger, notify.NoopNotifier{}, nil, collector); err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}
	return 0
}
