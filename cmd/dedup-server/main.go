package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opencrvs/dedup/internal/config"
	"github.com/opencrvs/dedup/internal/dedup"
	"github.com/opencrvs/dedup/internal/platform/auth"
	"github.com/opencrvs/dedup/internal/platform/db"
	"github.com/opencrvs/dedup/internal/platform/metrics"
	"github.com/opencrvs/dedup/internal/platform/middleware"
	redisclient "github.com/opencrvs/dedup/internal/platform/redis"
	"github.com/opencrvs/dedup/internal/search"
	"github.com/opencrvs/dedup/internal/workflow"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dedup-server",
		Short: "Civil registration record deduplication services",
	}

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(workflowCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search",
		Short: "Start the deduplication search service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch()
		},
	}
}

func workflowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workflow",
		Short: "Start the workflow duplicate-annotation service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the duplicate-check run log schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()
			return workflow.MigrateRunLog(ctx, pool)
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func newEcho(logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func runSearch() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.ValidateSearch(); err != nil {
		logger.Fatal().Err(err).Msg("invalid search service configuration")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	locales := dedup.Locales{Primary: cfg.PrimaryLocale, Secondary: cfg.SecondaryLocale}
	settings := search.MatchSettings{
		Fuzziness:          cfg.MatchFuzziness,
		MinimumShouldMatch: cfg.MatchMinShouldMatch,
		MinScore:           cfg.MatchMinScore,
		MaxCandidates:      cfg.MatchMaxCandidates,
	}

	backend := search.NewESClient(cfg.ESURL, cfg.ESIndex, nil, logger)
	svc := search.NewService(backend, settings, locales, logger, m)
	handler := search.NewHandler(svc, logger, m)

	e := newEcho(logger)
	api := e.Group("", auth.RequireBearer(), middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	handler.RegisterRoutes(api)

	logger.Info().Str("port", cfg.Port).Msg("starting deduplication search service")
	return serve(e, cfg.Port, logger)
}

func runWorkflow() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.ValidateWorkflow(); err != nil {
		logger.Fatal().Err(err).Msg("invalid workflow service configuration")
	}

	ctx := context.Background()
	m := metrics.New(prometheus.DefaultRegisterer)
	locales := dedup.Locales{Primary: cfg.PrimaryLocale, Secondary: cfg.SecondaryLocale}

	var runs workflow.RunLog
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		runs = workflow.NewPGRunLog(pool)
		logger.Info().Msg("run log backed by postgres")
	} else {
		runs = workflow.NewMemoryRunLog()
		logger.Warn().Msg("no DATABASE_URL configured, run log is in-memory")
	}

	rdb, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}
	cache := workflow.NewReplayCache(rdb, cfg.ReplayTTL(), logger)

	searcher := workflow.NewSearchClient(cfg.SearchURL, nil, cfg.SearchTimeout())
	store := workflow.NewHTTPRecordStore(cfg.FHIRStoreURL, nil)
	orchestrator := workflow.NewOrchestrator(searcher, store, runs, cache, locales, logger, m)
	handler := workflow.NewHandler(orchestrator, runs, logger)

	e := newEcho(logger)
	api := e.Group("", auth.RequireBearer(), middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	handler.RegisterRoutes(api)

	logger.Info().Str("port", cfg.Port).Msg("starting workflow duplicate-annotation service")
	return serve(e, cfg.Port, logger)
}

func serve(e *echo.Echo, port string, logger zerolog.Logger) error {
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return err
	}
	return nil
}
