package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/retailgrid/fbr-sync/internal/application/compliance"
	infrafbr "github.com/retailgrid/fbr-sync/internal/infrastructure/fbr"
	"github.com/retailgrid/fbr-sync/internal/infrastructure/postgres"
	"github.com/retailgrid/fbr-sync/pkg/config"
	"github.com/retailgrid/fbr-sync/pkg/crypto"
	"github.com/retailgrid/fbr-sync/pkg/logger"
)

// The worker binary drains the FBR retry queue on a fixed interval. It runs
// alongside the API server; the claim query keeps multiple instances safe.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Dur("interval", cfg.FBR.WorkerInterval).
		Int("batch_size", cfg.FBR.WorkerBatchSize).
		Msg("starting FBR retry worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection")
	}
	defer pool.Close()

	cipher, err := crypto.NewTokenCipher(cfg.FBR.TokenKey)
	if err != nil {
		log.Fatal().Err(err).Msg("FBR_TOKEN_KEY must be a 64-char hex key")
	}

	queueRepo := postgres.NewQueueRepository(pool)
	configRepo := postgres.NewFBRConfigRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authorityClient := infrafbr.NewClient(cfg.FBR.ProductionBaseURL, cfg.FBR.SandboxBaseURL, cfg.FBR.RequestTimeout)
	configUC := compliance.NewConfigUseCase(configRepo, cipher, log)
	worker := compliance.NewWorker(queueRepo, txRunner, authorityClient, configUC, log)

	// Metrics endpoint; the worker has no other HTTP surface.
	metricsSrv := &http.Server{Addr: cfg.HTTP.Addr(), Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	ticker := time.NewTicker(cfg.FBR.WorkerInterval)
	defer ticker.Stop()

	// Run one pass immediately so a restart does not delay pending work by a
	// full interval.
	runPass(ctx, worker, cfg.FBR.WorkerBatchSize, log)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown signal received, stopping worker...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("metrics server shutdown")
			}
			log.Info().Msg("worker stopped")
			return
		case <-ticker.C:
			runPass(ctx, worker, cfg.FBR.WorkerBatchSize, log)
		}
	}
}

func runPass(ctx context.Context, worker *compliance.Worker, batchSize int, log *logger.Logger) {
	stats, err := worker.ProcessRetryQueue(ctx, batchSize)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("retry queue pass failed")
		return
	}
	if stats.Claimed == 0 {
		log.Debug().Msg("retry queue empty")
	}
}
