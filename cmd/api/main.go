package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/arbitra-backend/api/routes"
	"github.com/angelmondragon/arbitra-backend/internal/analysis"
	"github.com/angelmondragon/arbitra-backend/internal/canister"
	"github.com/angelmondragon/arbitra-backend/internal/disputes"
	"github.com/angelmondragon/arbitra-backend/internal/escrow"
	"github.com/angelmondragon/arbitra-backend/internal/evidence"
	"github.com/angelmondragon/arbitra-backend/internal/lifecycle"
	"github.com/angelmondragon/arbitra-backend/pkg/config"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
	"github.com/angelmondragon/arbitra-backend/pkg/metrics"
	"github.com/angelmondragon/arbitra-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, cfg.Cache, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	canisterClient, err := canister.NewClient(cfg.Canister,
		canister.WithMetrics(metrics.NewCanisterMetrics(registry)),
		canister.WithLogger(logg),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create canister client", err)
		os.Exit(1)
	}

	gate := lifecycle.NewGate(
		lifecycle.PolicyFromWindow(cfg.Lifecycle.AppealWindow),
		lifecycle.WithMetrics(metrics.NewLifecycleMetrics(registry)),
	)

	disputeService, err := disputes.NewService(disputes.ServiceParams{
		Ledger:   canisterClient,
		Escrow:   canisterClient,
		Evidence: canisterClient,
		Cache:    redisClient,
		CacheTTL: cfg.Cache.DisputeTTL,
		Gate:     gate,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispute service", err)
		os.Exit(1)
	}

	evidenceService, err := evidence.NewService(evidence.ServiceParams{
		Disputes:       disputeService,
		Vault:          canisterClient,
		Gate:           gate,
		MaxUploadBytes: cfg.Evidence.MaxUploadBytes(),
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create evidence service", err)
		os.Exit(1)
	}

	analysisService, err := analysis.NewService(analysis.ServiceParams{
		Disputes: disputeService,
		Engine:   canisterClient,
		Ledger:   canisterClient,
		Gate:     gate,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create analysis service", err)
		os.Exit(1)
	}

	escrowService, err := escrow.NewService(escrow.ServiceParams{
		Disputes: disputeService,
		Escrow:   canisterClient,
		Ledger:   canisterClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}

	names := canisterClient.Names()
	router := routes.NewRouter(cfg, logg, redisClient, canisterClient,
		[]string{names.DisputeLedger, names.EvidenceVault, names.AnalysisEngine, names.Escrow},
		metrics.NewHTTPMetrics(registry), registry,
		routes.Services{
			Disputes: disputeService,
			Evidence: evidenceService,
			Analysis: analysisService,
			Escrow:   escrowService,
		})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"gateway": cfg.Canister.GatewayURL,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}
