package service_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/portfolio-analytics-backend/internal/api/request"
	"github.com/quantfolio/portfolio-analytics-backend/internal/apperrors"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
	"github.com/quantfolio/portfolio-analytics-backend/internal/testutil"
	"github.com/quantfolio/portfolio-analytics-backend/internal/validation"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// TestTransactionService_Create tests ledger entry creation.
//
// WHY: The type-conditional field rules are the heart of the ledger contract:
// a payload that violates them must never reach the database, and fields the
// type does not use must be discarded rather than stored.
func TestTransactionService_Create(t *testing.T) {
	t.Run("creates a buy with normalized ticker and type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		tx, err := svc.Create(portfolio.ID, request.CreateTransactionRequest{
			Ticker:   " aapl ",
			Date:     "2024-01-02",
			Type:     "buy",
			Quantity: dec("10"),
			Price:    dec("100"),
		})

		require.NoError(t, err)
		assert.Equal(t, "AAPL", tx.Ticker)
		assert.Equal(t, model.TransactionBuy, tx.Type)
		require.NotNil(t, tx.Quantity)
		assert.True(t, tx.Quantity.Equal(decimal.RequireFromString("10")))
		assert.Nil(t, tx.Amount)
	})

	t.Run("discards quantity and price on a dividend", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		tx, err := svc.Create(portfolio.ID, request.CreateTransactionRequest{
			Ticker:   "AAPL",
			Date:     "2024-01-02",
			Type:     "DIVIDEND",
			Amount:   dec("12.50"),
			Quantity: dec("999"),
			Price:    dec("999"),
		})

		require.NoError(t, err)
		assert.Nil(t, tx.Quantity)
		assert.Nil(t, tx.Price)
		require.NotNil(t, tx.Amount)
		assert.True(t, tx.Amount.Equal(decimal.RequireFromString("12.50")))
	})

	t.Run("rejects a buy without quantity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		_, err := svc.Create(portfolio.ID, request.CreateTransactionRequest{
			Ticker: "AAPL",
			Date:   "2024-01-02",
			Type:   "BUY",
			Price:  dec("100"),
		})

		var validationErr *validation.Error
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "quantity")
	})

	t.Run("rejects a sell with negative price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		_, err := svc.Create(portfolio.ID, request.CreateTransactionRequest{
			Ticker:   "AAPL",
			Date:     "2024-01-02",
			Type:     "SELL",
			Quantity: dec("5"),
			Price:    dec("-1"),
		})

		var validationErr *validation.Error
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "price")
	})

	t.Run("rejects a dividend without amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		_, err := svc.Create(portfolio.ID, request.CreateTransactionRequest{
			Ticker: "AAPL",
			Date:   "2024-01-02",
			Type:   "DIVIDEND",
		})

		var validationErr *validation.Error
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "amount")
	})

	t.Run("rejects a future-dated transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
		_, err := svc.Create(portfolio.ID, request.CreateTransactionRequest{
			Ticker:   "AAPL",
			Date:     tomorrow,
			Type:     "BUY",
			Quantity: dec("1"),
			Price:    dec("1"),
		})

		var validationErr *validation.Error
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "date")
	})

	t.Run("rejects an unknown portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)

		_, err := svc.Create(testutil.MakeID(), request.CreateTransactionRequest{
			Ticker:   "AAPL",
			Date:     "2024-01-02",
			Type:     "BUY",
			Quantity: dec("1"),
			Price:    dec("1"),
		})

		assert.ErrorIs(t, err, apperrors.ErrPortfolioNotFound)
	})

	t.Run("rejects a quantity that quantizes to zero", func(t *testing.T) {
		// 0.000000004 rounds to 0 at 8 digits; that must fail the quantity
		// rule, not pass validation and blow up on the storage constraint.
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		_, err := svc.Create(portfolio.ID, request.CreateTransactionRequest{
			Ticker:   "AAPL",
			Date:     "2024-01-02",
			Type:     "BUY",
			Quantity: dec("0.000000004"),
			Price:    dec("100"),
		})

		var validationErr *validation.Error
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Fields, "quantity")
	})

	t.Run("quantizes ledger decimals to 8 digits", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		tx, err := svc.Create(portfolio.ID, request.CreateTransactionRequest{
			Ticker:   "AAPL",
			Date:     "2024-01-02",
			Type:     "BUY",
			Quantity: dec("0.123456789"),
			Price:    dec("100"),
		})

		require.NoError(t, err)
		assert.True(t, tx.Quantity.Equal(decimal.RequireFromString("0.12345679")))
	})
}

// TestTransactionService_Delete tests transaction removal.
func TestTransactionService_Delete(t *testing.T) {
	t.Run("removes an existing transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)
		tx := testutil.NewTransaction(portfolio.ID).Build(t, db)

		require.NoError(t, svc.Delete(portfolio.ID, tx.ID))

		remaining, err := svc.List(portfolio.ID, repository.TransactionFilter{})
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("unknown transaction is not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		err := svc.Delete(portfolio.ID, testutil.MakeID())

		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
	})
}
