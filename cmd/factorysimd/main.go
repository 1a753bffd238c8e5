// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/factorysim/internal/domain/session/manager"
	"github.com/ManuGH/factorysim/internal/domain/session/ports"
	"github.com/ManuGH/factorysim/internal/domain/session/recovery"
	"github.com/ManuGH/factorysim/internal/domain/session/store"
	"github.com/ManuGH/factorysim/internal/domain/session/supervisor"
	"github.com/ManuGH/factorysim/internal/domain/session/transport"
	"github.com/ManuGH/factorysim/internal/domain/session/worker"
	"github.com/ManuGH/factorysim/internal/health"
	xglog "github.com/ManuGH/factorysim/internal/log"
	"github.com/ManuGH/factorysim/internal/orchconfig"
	"github.com/ManuGH/factorysim/internal/sessionapi"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "factorysim", Version: version})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := orchconfig.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	holder := orchconfig.NewHolder(cfg, *configPath)
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Warn().Err(err).Msg("config hot-reload watcher not started")
	}

	st, err := store.OpenStateStore(ctx, cfg.StoreBackend, cfg.StoreDSN)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open state store")
	}
	defer func() { _ = st.Close() }()

	bus := transport.NewMemoryBus()
	pool := supervisor.NewWorkerPool(cfg.SupervisorConfig(), bus)
	pool.Run(ctx)
	defer pool.TerminateAll(context.Background())

	w := worker.New(worker.DefaultConfig(), st, unimplementedEngineFactory)

	mgr := manager.New(cfg.ManagerConfig(), st, pool, w, bus)
	mgr.SetCapsSource(func() (int, int) {
		c := holder.Get()
		return c.MaxSessionsPerUser, c.MaxSessionsGlobal
	})

	recSvc := recovery.New(st, cfg.StaleInterruptedAge)
	summary, err := recSvc.Reconcile(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("startup reconciliation failed")
	} else {
		logger.Info().
			Int("interrupted", summary.InterruptedCount).
			Int("expired", summary.ExpiredCount).
			Int("gc", summary.StaleCount).
			Msg("startup reconciliation complete")
	}

	go func() {
		if err := mgr.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("crash listener exited unexpectedly")
		}
	}()

	sweeper := &manager.Sweeper{Manager: mgr, Conf: cfg.SweeperConfig()}
	go sweeper.Run(ctx)

	hm := health.NewManager(version)
	hm.SetReadyStrict(true)
	hm.RegisterChecker(health.NewStoreChecker(st.CountActiveGlobal))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", hm.ServeHealth)
	mux.HandleFunc("/readyz", hm.ServeReady)
	mux.Handle("/", sessionapi.NewRouter(mgr, recSvc, sessionapi.RouterConfig{
		RateLimitEnabled:   true,
		RateLimitGlobalRPS: 50,
		RateLimitBurst:     100,
	}))

	srv := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("factorysim orchestrator listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}
}

// unimplementedEngineFactory is the integration point for the real
// simulation runtime, which is an external, opaque-to-the-core collaborator
// (see the Engine contract in internal/domain/session/ports): the
// orchestrator only drives the command/event protocol, never car movement
// or plant topology, so no concrete Engine ships in this binary.
func unimplementedEngineFactory(sessionID string) ports.Engine {
	return &unimplementedEngine{sessionID: sessionID}
}

type unimplementedEngine struct {
	sessionID string
	events    chan ports.DomainEvent
}

func (e *unimplementedEngine) Init(ctx context.Context, cfg string) error {
	e.events = make(chan ports.DomainEvent)
	if strings.TrimSpace(cfg) == "" {
		return fmt.Errorf("unimplemented engine: empty config snapshot")
	}
	return nil
}

func (e *unimplementedEngine) Start(ctx context.Context) error  { return nil }
func (e *unimplementedEngine) Pause(ctx context.Context) error  { return nil }
func (e *unimplementedEngine) Resume(ctx context.Context) error { return nil }
func (e *unimplementedEngine) Stop(ctx context.Context) error {
	close(e.events)
	return nil
}
func (e *unimplementedEngine) Events() <-chan ports.DomainEvent { return e.events }
func (e *unimplementedEngine) Clock() (int64, int64)            { return 0, 0 }
