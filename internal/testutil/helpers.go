package testutil

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quantfolio/portfolio-analytics-backend/internal/marketdata"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
	"github.com/quantfolio/portfolio-analytics-backend/internal/service"
)

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(repository.NewPortfolioRepository(db))
}

func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	return service.NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewPortfolioRepository(db),
	)
}

func NewTestPriceService(t *testing.T, db *sql.DB, provider marketdata.Provider) *service.PriceService {
	t.Helper()

	return service.NewPriceService(
		repository.NewPriceRepository(db),
		repository.NewTransactionRepository(db),
		provider,
		zerolog.Nop(),
	)
}

func NewTestPositionService(t *testing.T, db *sql.DB, provider marketdata.Provider) *service.PositionService {
	t.Helper()

	return service.NewPositionService(
		repository.NewTransactionRepository(db),
		repository.NewPortfolioRepository(db),
		repository.NewPriceRepository(db),
		provider,
		zerolog.Nop(),
	)
}

func NewTestMetricsService(t *testing.T, db *sql.DB, provider marketdata.Provider) *service.MetricsService {
	t.Helper()

	return service.NewMetricsService(
		repository.NewTransactionRepository(db),
		repository.NewPortfolioRepository(db),
		NewTestPriceService(t, db, provider),
	)
}
