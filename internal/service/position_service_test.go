package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/portfolio-analytics-backend/internal/testutil"
)

// TestPositionService_Compute tests the position snapshot.
//
// WHY: The snapshot is the user-facing view of holdings. The weighted-average
// cost identity (avg_cost x quantity == net cost) and the zero-quantity
// filter are the two invariants a refactor is most likely to break.
func TestPositionService_Compute(t *testing.T) {
	t.Run("buy then mark to a higher price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPositionService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").Buy("10", "100").Build(t, db)
		testutil.InsertCloses(t, db, "AAPL", map[time.Time]string{
			testutil.Day(2024, time.June, 3): "110",
		})

		positions, err := svc.Compute(context.Background(), portfolio.ID)

		require.NoError(t, err)
		require.Len(t, positions, 1)

		p := positions[0]
		assert.Equal(t, "AAPL", p.Ticker)
		assert.True(t, p.Quantity.Equal(decimal.RequireFromString("10")))
		assert.True(t, p.AvgCost.Equal(decimal.RequireFromString("100")))
		require.NotNil(t, p.MarketPrice)
		assert.True(t, p.MarketPrice.Equal(decimal.RequireFromString("110")))
		assert.True(t, p.MarketValue.Equal(decimal.RequireFromString("1100")))
		assert.True(t, p.UnrealizedPnL.Equal(decimal.RequireFromString("100")))
	})

	t.Run("drops tickers with zero net quantity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPositionService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").Buy("3", "100").Build(t, db)
		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").
			OnDate(testutil.Day(2024, time.February, 1)).Sell("3", "110").Build(t, db)
		testutil.NewTransaction(portfolio.ID).WithTicker("MSFT").Buy("1", "400").Build(t, db)

		positions, err := svc.Compute(context.Background(), portfolio.ID)

		require.NoError(t, err)
		require.Len(t, positions, 1)
		assert.Equal(t, "MSFT", positions[0].Ticker)
	})

	t.Run("weighted average cost reflects partial sells", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPositionService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").Buy("10", "100").Build(t, db)
		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").
			OnDate(testutil.Day(2024, time.February, 1)).Sell("4", "120").Build(t, db)

		positions, err := svc.Compute(context.Background(), portfolio.ID)

		require.NoError(t, err)
		require.Len(t, positions, 1)

		// Net cost 520 over 6 shares: avg cost x quantity recovers the cost.
		p := positions[0]
		assert.True(t, p.Quantity.Equal(decimal.RequireFromString("6")))
		product := p.AvgCost.Mul(p.Quantity).Round(2)
		assert.True(t, product.Equal(decimal.RequireFromString("520")),
			"avg cost times quantity should equal net cost, got %s", product)
	})

	t.Run("falls back to the provider when no price is stored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewFakeProvider()
		provider.SetCloses("AAPL", map[time.Time]float64{
			testutil.Day(2024, time.June, 3): 105,
		})
		svc := testutil.NewTestPositionService(t, db, provider)
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").Buy("2", "100").Build(t, db)

		positions, err := svc.Compute(context.Background(), portfolio.ID)

		require.NoError(t, err)
		require.Len(t, positions, 1)
		require.NotNil(t, positions[0].MarketPrice)
		assert.True(t, positions[0].MarketPrice.Equal(decimal.RequireFromString("105")))
		assert.Equal(t, 1, provider.Calls["AAPL"])
	})

	t.Run("provider failure leaves a nil market price without failing the snapshot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		provider := testutil.NewFakeProvider()
		provider.Failing["AAPL"] = errors.New("connection reset")
		svc := testutil.NewTestPositionService(t, db, provider)
		portfolio := testutil.NewPortfolio().Build(t, db)

		testutil.NewTransaction(portfolio.ID).WithTicker("AAPL").Buy("2", "100").Build(t, db)

		positions, err := svc.Compute(context.Background(), portfolio.ID)

		require.NoError(t, err)
		require.Len(t, positions, 1)
		assert.Nil(t, positions[0].MarketPrice)
		assert.True(t, positions[0].MarketValue.IsZero())
		assert.True(t, positions[0].UnrealizedPnL.IsZero())
	})

	t.Run("empty ledger yields an empty snapshot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPositionService(t, db, testutil.NewFakeProvider())
		portfolio := testutil.NewPortfolio().Build(t, db)

		positions, err := svc.Compute(context.Background(), portfolio.ID)

		require.NoError(t, err)
		assert.Empty(t, positions)
	})
}
