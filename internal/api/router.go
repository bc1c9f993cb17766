package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/quantfolio/portfolio-analytics-backend/internal/api/handlers"
	custommiddleware "github.com/quantfolio/portfolio-analytics-backend/internal/api/middleware"
	"github.com/quantfolio/portfolio-analytics-backend/internal/config"
	"github.com/quantfolio/portfolio-analytics-backend/internal/service"
)

// Services bundles the service layer for router construction.
type Services struct {
	Portfolios    *service.PortfolioService
	Transactions  *service.TransactionService
	Positions     *service.PositionService
	Prices        *service.PriceService
	Metrics       *service.MetricsService
	TickerMetrics *service.TickerMetricsService
}

// NewRouter creates and configures the HTTP router
func NewRouter(db *sql.DB, svc Services, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(db)
			r.Get("/health", systemHandler.Health)
		})

		r.Route("/portfolios", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolios)
			r.Post("/", portfolioHandler.Create)
			r.Get("/", portfolioHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", portfolioHandler.Get)
				r.Delete("/", portfolioHandler.Delete)

				transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
				r.Route("/transactions", func(r chi.Router) {
					r.Post("/", transactionHandler.Create)
					r.Get("/", transactionHandler.List)
					r.Delete("/{txnId}", transactionHandler.Delete)
				})

				positionHandler := handlers.NewPositionHandler(svc.Positions)
				r.Get("/positions", positionHandler.List)

				metricsHandler := handlers.NewMetricsHandler(svc.Metrics, svc.TickerMetrics)
				r.Get("/metrics", metricsHandler.Portfolio)
			})
		})

		r.Route("/prices/{ticker}", func(r chi.Router) {
			priceHandler := handlers.NewPriceHandler(svc.Prices)
			r.Get("/last", priceHandler.Last)
			r.Get("/range", priceHandler.Range)
			r.Post("/refresh", priceHandler.Refresh)
		})

		r.Route("/metrics/{ticker}", func(r chi.Router) {
			metricsHandler := handlers.NewMetricsHandler(svc.Metrics, svc.TickerMetrics)
			r.Get("/basic", metricsHandler.Basic)
			r.Get("/advanced", metricsHandler.Advanced)
		})

		r.Route("/signals/{ticker}", func(r chi.Router) {
			signalHandler := handlers.NewSignalHandler(svc.TickerMetrics)
			r.Get("/tech", signalHandler.Tech)
		})
	})

	return r
}
