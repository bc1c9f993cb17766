package repository_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
	"github.com/quantfolio/portfolio-analytics-backend/internal/testutil"
)

func bar(ticker string, date time.Time, close string) model.PriceBar {
	c := decimal.RequireFromString(close)
	return model.PriceBar{Ticker: ticker, Date: date, Close: &c}
}

// TestPriceRepository_Upsert tests the (ticker, date) upsert contract.
//
// WHY: Ingestion re-fetches overlapping ranges constantly; the store must
// converge to one row per day carrying the latest values, or repeated
// refreshes would duplicate or stale out price history.
func TestPriceRepository_Upsert(t *testing.T) {
	t.Run("overlapping upserts keep one row with latest values", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)
		day := testutil.Day(2024, time.March, 1)

		_, err := repo.Upsert("AAPL", []model.PriceBar{bar("AAPL", day, "100.50")})
		require.NoError(t, err)

		// Same day, revised close.
		_, err = repo.Upsert("AAPL", []model.PriceBar{bar("AAPL", day, "101.25")})
		require.NoError(t, err)

		bars, err := repo.RangeBars("AAPL", day, day)
		require.NoError(t, err)
		require.Len(t, bars, 1)
		require.NotNil(t, bars[0].Close)
		assert.True(t, bars[0].Close.Equal(decimal.RequireFromString("101.25")),
			"expected latest close 101.25, got %s", bars[0].Close)
	})

	t.Run("counts rows written", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)

		count, err := repo.Upsert("MSFT", []model.PriceBar{
			bar("MSFT", testutil.Day(2024, time.March, 1), "400"),
			bar("MSFT", testutil.Day(2024, time.March, 4), "402"),
		})

		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("empty input writes nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)

		count, err := repo.Upsert("MSFT", nil)

		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

// TestPriceRepository_RangeCloses tests the per-ticker close retrieval.
func TestPriceRepository_RangeCloses(t *testing.T) {
	t.Run("groups points per ticker within range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)

		testutil.InsertCloses(t, db, "AAPL", map[time.Time]string{
			testutil.Day(2024, time.March, 1): "100",
			testutil.Day(2024, time.March, 4): "102",
			testutil.Day(2024, time.March, 5): "101",
		})
		testutil.InsertCloses(t, db, "MSFT", map[time.Time]string{
			testutil.Day(2024, time.March, 4): "400",
		})

		points, err := repo.RangeCloses(
			[]string{"AAPL", "MSFT", "GOOG"},
			testutil.Day(2024, time.March, 1),
			testutil.Day(2024, time.March, 4),
		)

		require.NoError(t, err)
		assert.Len(t, points["AAPL"], 2) // March 5 is out of range
		assert.Len(t, points["MSFT"], 1)
		assert.NotContains(t, points, "GOOG")
	})
}

// TestPriceRepository_Latest tests the most-recent-bar lookup.
func TestPriceRepository_Latest(t *testing.T) {
	t.Run("returns the newest bar per ticker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)

		testutil.InsertCloses(t, db, "AAPL", map[time.Time]string{
			testutil.Day(2024, time.March, 1): "100",
			testutil.Day(2024, time.March, 8): "105",
		})

		latest, err := repo.Latest([]string{"AAPL", "GOOG"})

		require.NoError(t, err)
		require.Contains(t, latest, "AAPL")
		assert.Equal(t, testutil.Day(2024, time.March, 8), latest["AAPL"].Date)
		assert.NotContains(t, latest, "GOOG")
	})
}

// TestPriceRepository_LastDate tests the incremental refresh cursor.
func TestPriceRepository_LastDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPriceRepository(db)

	_, ok, err := repo.LastDate("AAPL")
	require.NoError(t, err)
	assert.False(t, ok)

	testutil.InsertCloses(t, db, "AAPL", map[time.Time]string{
		testutil.Day(2024, time.March, 1): "100",
	})

	date, ok, err := repo.LastDate("AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testutil.Day(2024, time.March, 1), date)
}
