package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/retailgrid/fbr-sync/internal/application/compliance"
	domainfbr "github.com/retailgrid/fbr-sync/internal/domain/fbr"
	infrafbr "github.com/retailgrid/fbr-sync/internal/infrastructure/fbr"
	"github.com/retailgrid/fbr-sync/internal/infrastructure/postgres"
	httpRouter "github.com/retailgrid/fbr-sync/internal/interfaces/http"
	"github.com/retailgrid/fbr-sync/pkg/config"
	"github.com/retailgrid/fbr-sync/pkg/crypto"
	"github.com/retailgrid/fbr-sync/pkg/logger"
)

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
		Str("app", cfg.App.Name).
		Msg("starting API server")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection")
	}
	defer pool.Close()

	cipher, err := crypto.NewTokenCipher(cfg.FBR.TokenKey)
	if err != nil {
		log.Fatal().Err(err).Msg("FBR_TOKEN_KEY must be a 64-char hex key")
	}

	saleRepo := postgres.NewSaleRepository(pool)
	tenantRepo := postgres.NewTenantRepository(pool)
	configRepo := postgres.NewFBRConfigRepository(pool)
	queueRepo := postgres.NewQueueRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authorityClient := infrafbr.NewClient(cfg.FBR.ProductionBaseURL, cfg.FBR.SandboxBaseURL, cfg.FBR.RequestTimeout)
	referenceClient := infrafbr.NewReferenceClient(cfg.FBR.ProductionBaseURL, cfg.FBR.SandboxBaseURL, cfg.FBR.RequestTimeout)

	configUC := compliance.NewConfigUseCase(configRepo, cipher, log)
	orchestrator := compliance.NewOrchestrator(
		tenantRepo, saleRepo, txRunner, domainfbr.NewBuilder(),
		authorityClient, configUC, cfg.FBR.MaxRetries, log,
	)
	worker := compliance.NewWorker(queueRepo, txRunner, authorityClient, configUC, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 40,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Orchestrator:    orchestrator,
		Worker:          worker,
		ConfigUC:        configUC,
		ReferenceClient: referenceClient,
		JWTSecret:       cfg.JWT.Secret,
		QueueBatchSize:  cfg.FBR.WorkerBatchSize,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
