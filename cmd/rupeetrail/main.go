package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rupeetrail/rupeetrail-api-go/internal/config"
	"github.com/rupeetrail/rupeetrail-api-go/internal/domain"
	"github.com/rupeetrail/rupeetrail-api-go/internal/handler"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/cache"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/client"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/observability"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/resilience"
	"github.com/rupeetrail/rupeetrail-api-go/internal/infra/supabase"
	"github.com/rupeetrail/rupeetrail-api-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("report_timezone", cfg.ReportTimezone),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("scheduler_enabled", cfg.SchedulerEnabled),
	)

	// --- Reporting timezone ---
	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		logger.Fatal("invalid report timezone",
			zap.String("timezone", cfg.ReportTimezone),
			zap.Error(err),
		)
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "rupeetrail-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	categoryCache := cache.New[domain.Category](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	storeCB := resilience.NewCircuitBreaker("supabase")
	mailerCB := resilience.NewCircuitBreaker("mailer")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		storeCB,
		resilienceCfg,
		logger,
	)
	mailer := client.NewMailerClient(httpClient, cfg.MailerAPIURL, mailerCB, resilienceCfg)

	// --- Services ---
	financeSvc := service.NewFinanceService(store, mailer, categoryCache, loc, metrics, logger)

	// --- Scheduler ---
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	if cfg.SchedulerEnabled {
		scheduler := service.NewScheduler(financeSvc, store, mailer, loc, cfg.DailyReportHour, metrics, logger)
		go scheduler.Run(schedCtx)
		logger.Info("report scheduler started",
			zap.Int("daily_hour", cfg.DailyReportHour),
			zap.String("timezone", cfg.ReportTimezone),
		)
	}

	// --- Router ---
	router := handler.NewRouter(financeSvc, store, metrics, logger, cfg.JWTSecret)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	stopScheduler()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
