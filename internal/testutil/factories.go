package testutil

import (
	"database/sql"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
)

// MakeID generates a fresh UUID for test entities.
func MakeID() string {
	return uuid.NewString()
}

// MakePortfolioName generates a unique portfolio name from a prefix.
// Portfolio names are unique in the schema, so fixtures need distinct ones.
func MakePortfolioName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, rand.Int63())
}

// Day is shorthand for a UTC midnight date in tests.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	portfolio := testutil.NewPortfolio().WithName("Growth").Build(t, db)
type PortfolioBuilder struct {
	ID   string
	Name string
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:   MakeID(),
		Name: MakePortfolioName("Test Portfolio"),
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	portfolio := model.Portfolio{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := repository.NewPortfolioRepository(db).Insert(portfolio); err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}
	return portfolio
}

// CreatePortfolio creates a portfolio with the given name and default values.
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// TransactionBuilder provides a fluent interface for creating test ledger
// entries. Defaults to a BUY of 10 shares at 100.
//
// Example usage:
//
//	testutil.NewTransaction(portfolio.ID).
//	    WithTicker("AAPL").
//	    OnDate(testutil.Day(2024, 1, 2)).
//	    Sell("4", "110").
//	    Build(t, db)
type TransactionBuilder struct {
	ID          string
	PortfolioID string
	Ticker      string
	Date        time.Time
	Type        model.TransactionType
	Quantity    *decimal.Decimal
	Price       *decimal.Decimal
	Amount      *decimal.Decimal
}

// NewTransaction creates a TransactionBuilder with sensible defaults.
func NewTransaction(portfolioID string) *TransactionBuilder {
	qty := decimal.RequireFromString("10")
	price := decimal.RequireFromString("100")
	return &TransactionBuilder{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		Ticker:      "AAPL",
		Date:        Day(2024, time.January, 2),
		Type:        model.TransactionBuy,
		Quantity:    &qty,
		Price:       &price,
	}
}

// WithTicker sets a custom ticker.
func (b *TransactionBuilder) WithTicker(ticker string) *TransactionBuilder {
	b.Ticker = ticker
	return b
}

// OnDate sets the transaction date.
func (b *TransactionBuilder) OnDate(date time.Time) *TransactionBuilder {
	b.Date = date
	return b
}

// Buy makes the entry a BUY with the given quantity and price.
func (b *TransactionBuilder) Buy(quantity, price string) *TransactionBuilder {
	q := decimal.RequireFromString(quantity)
	p := decimal.RequireFromString(price)
	b.Type = model.TransactionBuy
	b.Quantity, b.Price, b.Amount = &q, &p, nil
	return b
}

// Sell makes the entry a SELL with the given quantity and price.
func (b *TransactionBuilder) Sell(quantity, price string) *TransactionBuilder {
	q := decimal.RequireFromString(quantity)
	p := decimal.RequireFromString(price)
	b.Type = model.TransactionSell
	b.Quantity, b.Price, b.Amount = &q, &p, nil
	return b
}

// Dividend makes the entry a DIVIDEND with the given amount.
func (b *TransactionBuilder) Dividend(amount string) *TransactionBuilder {
	a := decimal.RequireFromString(amount)
	b.Type = model.TransactionDividend
	b.Quantity, b.Price, b.Amount = nil, nil, &a
	return b
}

// Fee makes the entry a FEE with the given amount.
func (b *TransactionBuilder) Fee(amount string) *TransactionBuilder {
	a := decimal.RequireFromString(amount)
	b.Type = model.TransactionFee
	b.Quantity, b.Price, b.Amount = nil, nil, &a
	return b
}

// Build creates the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	transaction := model.Transaction{
		ID:          b.ID,
		PortfolioID: b.PortfolioID,
		Ticker:      b.Ticker,
		Date:        b.Date,
		Type:        b.Type,
		Quantity:    b.Quantity,
		Price:       b.Price,
		Amount:      b.Amount,
		CreatedAt:   time.Now().UTC(),
	}
	if err := repository.NewTransactionRepository(db).Insert(transaction); err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}
	return transaction
}

// InsertCloses stores one close-only bar per (date, close) pair for a ticker.
// Closes are decimal strings keyed by date.
func InsertCloses(t *testing.T, db *sql.DB, ticker string, closes map[time.Time]string) {
	t.Helper()

	bars := make([]model.PriceBar, 0, len(closes))
	for date, raw := range closes {
		c := decimal.RequireFromString(raw)
		bars = append(bars, model.PriceBar{
			Ticker: ticker,
			Date:   date,
			Close:  &c,
		})
	}
	if _, err := repository.NewPriceRepository(db).Upsert(ticker, bars); err != nil {
		t.Fatalf("Failed to insert test prices: %v", err)
	}
}
