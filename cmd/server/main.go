// Command server runs the Capacítamente support-bot HTTP API.
//
// Startup order:
//  1. Load .env (best effort) and the typed configuration.
//  2. Configure zerolog (level, optional pretty console).
//  3. Set up OpenTelemetry tracing (no-op unless enabled).
//  4. Open SQLite, run migrations, seed the certificate orders.
//  5. Build the AI fallback gateway and launch its context janitor.
//  6. Mount the Gin router and serve until SIGINT/SIGTERM, then drain.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/capacitamente/lyro-backend/internal/catalog"
	"github.com/capacitamente/lyro-backend/internal/config"
	"github.com/capacitamente/lyro-backend/internal/genai"
	httpapi "github.com/capacitamente/lyro-backend/internal/http"
	"github.com/capacitamente/lyro-backend/internal/observability"
	"github.com/capacitamente/lyro-backend/internal/repo"
	"github.com/capacitamente/lyro-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting lyro-backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("sqlite open failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin failed")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := repo.SeedCertificates(ctx, db, catalog.SeedCertificates()); err != nil {
		log.Fatal().Err(err).Msg("certificate seed failed")
	}

	// AI fallback gateway
	var aiClient genai.Client
	if cfg.AI.APIKey != "" {
		aiClient = genai.NewOpenAIClient(cfg.AI.APIKey, cfg.AI.Model)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, AI fallback disabled")
		aiClient = genai.NewDisabledClient()
	}
	loc, err := time.LoadLocation(cfg.AI.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.AI.Timezone).Msg("invalid quota timezone")
	}
	gateway := genai.NewGateway(aiClient, genai.Options{
		SystemPrompt: catalog.SystemPrompt(),
		DailyQuota:   cfg.AI.DailyQuota,
		Location:     loc,
		Cooldown:     cfg.AI.Cooldown,
		MaxRetries:   cfg.AI.MaxRetries,
		RetryBackoff: cfg.AI.RetryBackoff,
		CallTimeout:  cfg.AI.CallTimeout,
		ContextTTL:   cfg.AI.ContextTTL,
		MaxContexts:  cfg.AI.MaxContexts,
		HistoryLimit: cfg.AI.HistoryLimit,
		NeutralReply: catalog.NeutralFallback,
	})
	go gateway.Start(ctx)

	// HTTP
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, gateway, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("http server failed")
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
