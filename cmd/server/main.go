package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/portfolio-analytics-backend/internal/api"
	"github.com/quantfolio/portfolio-analytics-backend/internal/config"
	"github.com/quantfolio/portfolio-analytics-backend/internal/database"
	"github.com/quantfolio/portfolio-analytics-backend/internal/marketdata"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
	"github.com/quantfolio/portfolio-analytics-backend/internal/scheduler"
	"github.com/quantfolio/portfolio-analytics-backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Log)

	// Open database connection and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}
	logger.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Market data provider
	var provider marketdata.Provider
	if cfg.Provider.BaseURL != "" {
		provider = marketdata.NewClientWithBaseURL(cfg.Provider.BaseURL)
	} else {
		provider = marketdata.NewClient()
	}

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	priceRepo := repository.NewPriceRepository(db)

	// Create services
	portfolioService := service.NewPortfolioService(portfolioRepo)
	transactionService := service.NewTransactionService(transactionRepo, portfolioRepo)
	priceService := service.NewPriceService(priceRepo, transactionRepo, provider, logger)
	positionService := service.NewPositionService(transactionRepo, portfolioRepo, priceRepo, provider, logger)
	metricsService := service.NewMetricsService(transactionRepo, portfolioRepo, priceService)
	tickerMetricsService := service.NewTickerMetricsService(provider)

	// Create router
	router := api.NewRouter(db, api.Services{
		Portfolios:    portfolioService,
		Transactions:  transactionService,
		Positions:     positionService,
		Prices:        priceService,
		Metrics:       metricsService,
		TickerMetrics: tickerMetricsService,
	}, cfg, logger)

	// Background price refresh
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(priceService, cfg.Scheduler.Spec, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("spec", cfg.Scheduler.Spec).Msg("invalid refresh schedule")
		}
		sched.Start()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}

// newLogger builds the process logger from configuration.
func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
