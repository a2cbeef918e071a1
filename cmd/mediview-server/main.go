package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mediview/mediview/internal/config"
	"github.com/mediview/mediview/internal/domain/audit"
	"github.com/mediview/mediview/internal/domain/session"
	"github.com/mediview/mediview/internal/platform/auth"
	"github.com/mediview/mediview/internal/platform/db"
	"github.com/mediview/mediview/internal/platform/events"
	"github.com/mediview/mediview/internal/platform/middleware"
	"github.com/mediview/mediview/internal/upstream/extraction"
	"github.com/mediview/mediview/internal/upstream/patients"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mediview-server",
		Short: "Clinical record review gateway",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(initAuditCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the review gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func initAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-audit",
		Short: "Create the audit trail schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.AuditEnabled() {
				return fmt.Errorf("DATABASE_URL is not configured")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := audit.NewRepoPG(pool).EnsureSchema(ctx); err != nil {
				return fmt.Errorf("create audit schema: %w", err)
			}
			fmt.Println("Audit schema ready.")
			return nil
		},
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// Optional audit trail, enabled by DATABASE_URL.
	var trail *audit.Service
	var pool *pgxpool.Pool
	if cfg.AuditEnabled() {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		repo := audit.NewRepoPG(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare audit schema")
		}
		trail = audit.NewService(repo, logger)
		logger.Info().Msg("audit trail enabled")
	}

	// Session store: memory by default, Redis when configured.
	var store session.Store
	switch cfg.SessionStore {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		store = session.NewRedisStore(client, cfg.SessionTTL())
		logger.Info().Msg("using redis session store")
	default:
		store = session.NewMemoryStore(cfg.SessionTTL())
	}

	// Optional record events, enabled by KAFKA_BROKERS.
	var publisher *events.Publisher
	if cfg.EventsEnabled() {
		publisher = events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer publisher.Close()
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Msg("record events enabled")
	}

	patientClient := patients.NewClient(cfg.PatientAPIBaseURL)
	extractionClient := extraction.NewClient(cfg.FilesAPIBaseURL)

	sessionSvc := session.NewService(store, patientClient, extractionClient, trail, publisher, cfg.UploaderID, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	session.NewHandler(sessionSvc).RegisterRoutes(apiV1)
	if trail != nil {
		audit.NewHandler(trail).RegisterRoutes(apiV1)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
