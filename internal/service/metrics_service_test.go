package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/portfolio-analytics-backend/internal/apperrors"
	"github.com/quantfolio/portfolio-analytics-backend/internal/testutil"
)

// TestMetricsService_PortfolioMetrics tests the valuation and metrics engine.
//
// WHY: This is the core analytics path: ledger reconstruction, price
// forward-fill, return derivation and the nil-on-degenerate statistic
// policies all meet here. The flat-price scenario in particular guards the
// nil contract for zero-volatility windows.
func TestMetricsService_PortfolioMetrics(t *testing.T) {
	t.Run("flat prices yield nil volatility and zero drawdown", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricsService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").
			OnDate(testutil.Day(2024, time.March, 1)).Buy("10", "100").Build(t, db)

		closes := map[time.Time]string{}
		for d := testutil.Day(2024, time.March, 1); !d.After(testutil.Day(2024, time.March, 29)); d = d.AddDate(0, 0, 1) {
			closes[d] = "100"
		}
		testutil.InsertCloses(t, db, "AAPL", closes)

		metrics, err := svc.PortfolioMetrics(
			context.Background(), portfolio.ID,
			testutil.Day(2024, time.March, 1), testutil.Day(2024, time.March, 29),
			0, 0,
		)

		require.NoError(t, err)
		require.NotNil(t, metrics.AnnReturn)
		assert.Zero(t, *metrics.AnnReturn)
		assert.Nil(t, metrics.AnnVolatility)
		assert.Nil(t, metrics.Sharpe)
		assert.Nil(t, metrics.Sortino)
		assert.Nil(t, metrics.Calmar)
		assert.Zero(t, metrics.MaxDrawdown)
	})

	t.Run("declining prices produce a negative drawdown and defined volatility", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricsService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").
			OnDate(testutil.Day(2024, time.March, 1)).Buy("10", "100").Build(t, db)

		testutil.InsertCloses(t, db, "AAPL", map[time.Time]string{
			testutil.Day(2024, time.March, 1): "100",
			testutil.Day(2024, time.March, 2): "110",
			testutil.Day(2024, time.March, 3): "99",
			testutil.Day(2024, time.March, 4): "104",
		})

		metrics, err := svc.PortfolioMetrics(
			context.Background(), portfolio.ID,
			testutil.Day(2024, time.March, 1), testutil.Day(2024, time.March, 4),
			0, 0,
		)

		require.NoError(t, err)
		assert.Negative(t, metrics.MaxDrawdown)
		// Peak 1100, trough 990.
		assert.InDelta(t, 990.0/1100.0-1, metrics.MaxDrawdown, 1e-9)
		require.NotNil(t, metrics.AnnVolatility)
		assert.Positive(t, *metrics.AnnVolatility)
		require.NotNil(t, metrics.Sharpe)
		require.NotNil(t, metrics.DownsideVolatility)
		require.NotNil(t, metrics.Sortino)
		require.NotNil(t, metrics.Calmar)
		assert.Equal(t, []string{"AAPL"}, metrics.Tickers)
	})

	t.Run("same inputs produce identical metrics on repeat", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricsService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").
			OnDate(testutil.Day(2024, time.March, 1)).Buy("10", "100").Build(t, db)
		testutil.InsertCloses(t, db, "AAPL", map[time.Time]string{
			testutil.Day(2024, time.March, 1): "100",
			testutil.Day(2024, time.March, 2): "103",
			testutil.Day(2024, time.March, 3): "101",
		})

		first, err := svc.PortfolioMetrics(
			context.Background(), portfolio.ID,
			testutil.Day(2024, time.March, 1), testutil.Day(2024, time.March, 3),
			0.02, 0.01,
		)
		require.NoError(t, err)
		second, err := svc.PortfolioMetrics(
			context.Background(), portfolio.ID,
			testutil.Day(2024, time.March, 1), testutil.Day(2024, time.March, 3),
			0.02, 0.01,
		)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("start after end is rejected before any store access", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricsService(t, db, testutil.NewFakeProvider())

		// Not even a valid portfolio ID: the range check must come first.
		_, err := svc.PortfolioMetrics(
			context.Background(), "not-a-uuid",
			testutil.Day(2024, time.March, 10), testutil.Day(2024, time.March, 1),
			0, 0,
		)

		assert.ErrorIs(t, err, apperrors.ErrInvalidDateRange)
	})

	t.Run("portfolio without transactions has insufficient data", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricsService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		_, err := svc.PortfolioMetrics(
			context.Background(), portfolio.ID,
			testutil.Day(2024, time.March, 1), testutil.Day(2024, time.March, 4),
			0, 0,
		)

		assert.ErrorIs(t, err, apperrors.ErrInsufficientData)
	})

	t.Run("an unpriceable ticker fails the request", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricsService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").
			OnDate(testutil.Day(2024, time.March, 1)).Buy("10", "100").Build(t, db)

		_, err := svc.PortfolioMetrics(
			context.Background(), portfolio.ID,
			testutil.Day(2024, time.March, 1), testutil.Day(2024, time.March, 4),
			0, 0,
		)

		assert.ErrorIs(t, err, apperrors.ErrTickerNotFound)
	})

	t.Run("one priced and one unpriceable holding still fails", func(t *testing.T) {
		// A partial valuation would silently misstate every downstream metric,
		// so a single holding nobody can price aborts the whole computation.
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricsService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").
			OnDate(testutil.Day(2024, time.March, 1)).Buy("10", "100").Build(t, db)
		testutil.NewTransaction(portfolio.ID).WithTicker("FAKE").
			OnDate(testutil.Day(2024, time.March, 1)).Buy("5", "50").Build(t, db)
		testutil.InsertCloses(t, db, "AAPL", map[time.Time]string{
			testutil.Day(2024, time.March, 1): "100",
			testutil.Day(2024, time.March, 4): "101",
		})

		_, err := svc.PortfolioMetrics(
			context.Background(), portfolio.ID,
			testutil.Day(2024, time.March, 1), testutil.Day(2024, time.March, 4),
			0, 0,
		)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrTickerNotFound)
		assert.ErrorContains(t, err, "FAKE")
	})

	t.Run("weekend gaps are forward-filled, never backward", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestMetricsService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		// Friday March 1 and Monday March 4; the weekend carries Friday's close.
		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").
			OnDate(testutil.Day(2024, time.March, 1)).Buy("1", "100").Build(t, db)
		testutil.InsertCloses(t, db, "AAPL", map[time.Time]string{
			testutil.Day(2024, time.March, 1): "100",
			testutil.Day(2024, time.March, 4): "100",
		})

		metrics, err := svc.PortfolioMetrics(
			context.Background(), portfolio.ID,
			testutil.Day(2024, time.March, 1), testutil.Day(2024, time.March, 4),
			0, 0,
		)

		require.NoError(t, err)
		// Value is flat across the fill, so the window has zero drawdown.
		assert.Zero(t, metrics.MaxDrawdown)
		assert.Equal(t, 3, metrics.NDays)
	})
}
