// Command server runs the selfspeak backend: a journaling API with
// AI-assisted daily analysis and weekly insight dashboards.
//
// Startup order:
//  1. Load .env (dev convenience) and the environment configuration.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Open the database (SQLite or Postgres), enable tracing, migrate.
//  4. Initialize OpenTelemetry (when enabled).
//  5. Register routes and serve with graceful shutdown.
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

	"github.com/selfspeak/selfspeak-backend/internal/ai"
	"github.com/selfspeak/selfspeak-backend/internal/config"
	httpapi "github.com/selfspeak/selfspeak-backend/internal/http"
	"github.com/selfspeak/selfspeak-backend/internal/observability"
	"github.com/selfspeak/selfspeak-backend/internal/repo"
	"github.com/selfspeak/selfspeak-backend/internal/sysutil"
)

// version is reported as the service version in traces.
const version = "1.0.0"

func main() {
	// .env is a local development convenience; deployments set real env vars.
	if !sysutil.IsTruthy(os.Getenv("SKIP_DOTENV")) {
		_ = godotenv.Load()
	}

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	// Database
	var dsn string
	switch cfg.DBDriver {
	case "postgres":
		dsn = cfg.DatabaseURL
	default:
		// DATABASE_URL may carry a full SQLite DSN; DB_PATH is the usual route.
		dsn = sysutil.FirstNonEmpty(cfg.DatabaseURL, cfg.DBPath)
	}
	db, err := repo.Open(cfg.DBDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing disabled")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// OpenTelemetry
	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup opentelemetry")
	}

	// HTTP
	r := gin.New()
	httpapi.RegisterRoutes(r, db, ai.NewStub(), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("base_path", cfg.APIBasePath).
			Str("driver", cfg.DBDriver).
			Bool("auth", cfg.Auth.Enabled).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	stopCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("bye")
}
