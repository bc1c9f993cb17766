package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quantfolio/portfolio-analytics-backend/internal/apperrors"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
)

// TransactionRepository provides data access methods for the txn table.
// Transactions are always returned ordered by (date, created_at) so ledger
// replay is deterministic.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// TransactionFilter narrows a ledger query. Zero values mean "no bound".
type TransactionFilter struct {
	Start  *time.Time
	End    *time.Time
	Ticker string
}

// Insert stores a new transaction row.
func (r *TransactionRepository) Insert(t model.Transaction) error {
	_, err := r.db.Exec(
		`INSERT INTO txn (id, portfolio_id, ticker, date, type, quantity, price, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.PortfolioID,
		t.Ticker,
		t.Date.Format(dateFormat),
		string(t.Type),
		decimalArg(t.Quantity),
		decimalArg(t.Price),
		decimalArg(t.Amount),
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// List retrieves the transactions of a portfolio matching the filter,
// ordered by date then creation order.
func (r *TransactionRepository) List(portfolioID string, filter TransactionFilter) ([]model.Transaction, error) {
	query := `
		SELECT id, portfolio_id, ticker, date, type, quantity, price, amount, created_at
		FROM txn
		WHERE portfolio_id = ?
	`
	args := []any{portfolioID}

	if filter.Start != nil {
		query += ` AND date >= ?`
		args = append(args, filter.Start.Format(dateFormat))
	}
	if filter.End != nil {
		query += ` AND date <= ?`
		args = append(args, filter.End.Format(dateFormat))
	}
	if filter.Ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, filter.Ticker)
	}
	query += ` ORDER BY date ASC, created_at ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query txn table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating txn table: %w", err)
	}
	return transactions, nil
}

// Get retrieves one transaction scoped to a portfolio.
// Returns apperrors.ErrTransactionNotFound when no row matches.
func (r *TransactionRepository) Get(portfolioID, transactionID string) (model.Transaction, error) {
	row := r.db.QueryRow(`
		SELECT id, portfolio_id, ticker, date, type, quantity, price, amount, created_at
		FROM txn
		WHERE portfolio_id = ? AND id = ?`,
		portfolioID, transactionID,
	)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, fmt.Errorf("%w: %s", apperrors.ErrTransactionNotFound, transactionID)
	}
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// Delete removes one transaction scoped to a portfolio.
// Returns apperrors.ErrTransactionNotFound when no row matches.
func (r *TransactionRepository) Delete(portfolioID, transactionID string) error {
	result, err := r.db.Exec(`DELETE FROM txn WHERE portfolio_id = ? AND id = ?`, portfolioID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrTransactionNotFound, transactionID)
	}
	return nil
}

// AggregatePositions nets the full BUY/SELL ledger of a portfolio into
// per-ticker signed quantity and signed cost. The fold runs in Go with
// decimal arithmetic so aggregates stay exact regardless of the driver's
// numeric affinity. Results are ordered by ticker ascending; tickers whose
// net quantity is exactly zero are still included here and filtered by the
// position snapshot.
func (r *TransactionRepository) AggregatePositions(portfolioID string) ([]model.PositionAggregate, error) {
	rows, err := r.db.Query(`
		SELECT ticker, type, quantity, price
		FROM txn
		WHERE portfolio_id = ? AND type IN ('BUY', 'SELL')
		ORDER BY ticker ASC, date ASC, created_at ASC`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query txn table: %w", err)
	}
	defer rows.Close()

	aggregates := []model.PositionAggregate{}
	for rows.Next() {
		var ticker, txType string
		var quantityStr, priceStr sql.NullString
		if err := rows.Scan(&ticker, &txType, &quantityStr, &priceStr); err != nil {
			return nil, fmt.Errorf("failed to scan txn table results: %w", err)
		}
		quantity, err := nullDecimal(quantityStr)
		if err != nil {
			return nil, err
		}
		price, err := nullDecimal(priceStr)
		if err != nil {
			return nil, err
		}
		if quantity == nil || price == nil {
			continue
		}

		qty := *quantity
		cost := quantity.Mul(*price)
		if model.TransactionType(txType) == model.TransactionSell {
			qty = qty.Neg()
			cost = cost.Neg()
		}

		if len(aggregates) > 0 && aggregates[len(aggregates)-1].Ticker == ticker {
			last := &aggregates[len(aggregates)-1]
			last.Quantity = last.Quantity.Add(qty)
			last.Cost = last.Cost.Add(cost)
		} else {
			aggregates = append(aggregates, model.PositionAggregate{
				Ticker:   ticker,
				Quantity: qty,
				Cost:     cost,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating txn table: %w", err)
	}
	return aggregates, nil
}

// DistinctTickers returns every ticker referenced by any transaction,
// across all portfolios. Used by the scheduled price refresh.
func (r *TransactionRepository) DistinctTickers() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT ticker FROM txn ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query txn table: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan txn table results: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating txn table: %w", err)
	}
	return tickers, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTransaction.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var typeStr, dateStr, createdAtStr string
	var quantityStr, priceStr, amountStr sql.NullString

	err := row.Scan(
		&t.ID,
		&t.PortfolioID,
		&t.Ticker,
		&dateStr,
		&typeStr,
		&quantityStr,
		&priceStr,
		&amountStr,
		&createdAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Transaction{}, err
		}
		return model.Transaction{}, fmt.Errorf("failed to scan txn table results: %w", err)
	}

	t.Type = model.TransactionType(typeStr)
	if t.Date, err = ParseTime(dateStr); err != nil {
		return model.Transaction{}, err
	}
	if t.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.Transaction{}, err
	}
	if t.Quantity, err = nullDecimal(quantityStr); err != nil {
		return model.Transaction{}, err
	}
	if t.Price, err = nullDecimal(priceStr); err != nil {
		return model.Transaction{}, err
	}
	if t.Amount, err = nullDecimal(amountStr); err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}
