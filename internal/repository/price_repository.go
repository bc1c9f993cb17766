package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
)

// PriceRepository provides data access methods for the price table.
// Price bars are shared read-mostly reference data keyed by (ticker, date).
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Upsert stores bars for a ticker, replacing any existing row for the same
// (ticker, date) with the latest values. Returns the number of rows written.
// Safe to call repeatedly with the same data.
func (r *PriceRepository) Upsert(ticker string, bars []model.PriceBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price (ticker, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, bar := range bars {
		_, err := stmt.Exec(
			ticker,
			bar.Date.Format(dateFormat),
			decimalArg(bar.Open),
			decimalArg(bar.High),
			decimalArg(bar.Low),
			decimalArg(bar.Close),
			int64Arg(bar.Volume),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert price bar: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit price upsert: %w", err)
	}
	return count, nil
}

// RangeBars retrieves the stored bars of one ticker within [start, end],
// ordered by date ascending.
func (r *PriceRepository) RangeBars(ticker string, start, end time.Time) ([]model.PriceBar, error) {
	rows, err := r.db.Query(`
		SELECT ticker, date, open, high, low, close, volume
		FROM price
		WHERE ticker = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		ticker, start.Format(dateFormat), end.Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price table: %w", err)
	}
	defer rows.Close()

	bars := []model.PriceBar{}
	for rows.Next() {
		bar, err := scanPriceBar(rows)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price table: %w", err)
	}
	return bars, nil
}

// RangeCloses retrieves (date, close) points for a set of tickers within
// [start, end], grouped per ticker and ordered by date. Rows without a close
// are skipped. Tickers with no rows are absent from the result map.
func (r *PriceRepository) RangeCloses(tickers []string, start, end time.Time) (map[string][]model.PricePoint, error) {
	if len(tickers) == 0 {
		return map[string][]model.PricePoint{}, nil
	}

	query := `
		SELECT ticker, date, close
		FROM price
		WHERE ticker IN (` + placeholders(len(tickers)) + `)
		AND date >= ? AND date <= ?
		AND close IS NOT NULL
		ORDER BY ticker ASC, date ASC
	`
	args := make([]any, 0, len(tickers)+2)
	for _, t := range tickers {
		args = append(args, t)
	}
	args = append(args, start.Format(dateFormat), end.Format(dateFormat))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price table: %w", err)
	}
	defer rows.Close()

	points := map[string][]model.PricePoint{}
	for rows.Next() {
		var ticker, dateStr string
		var closeStr sql.NullString
		if err := rows.Scan(&ticker, &dateStr, &closeStr); err != nil {
			return nil, fmt.Errorf("failed to scan price table results: %w", err)
		}
		date, err := ParseTime(dateStr)
		if err != nil {
			return nil, err
		}
		closePrice, err := nullDecimal(closeStr)
		if err != nil {
			return nil, err
		}
		if closePrice == nil {
			continue
		}
		points[ticker] = append(points[ticker], model.PricePoint{Date: date, Close: *closePrice})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price table: %w", err)
	}
	return points, nil
}

// Latest retrieves the most recent stored bar per ticker. Tickers with no
// rows are absent from the result map.
func (r *PriceRepository) Latest(tickers []string) (map[string]model.PriceBar, error) {
	if len(tickers) == 0 {
		return map[string]model.PriceBar{}, nil
	}

	query := `
		SELECT p.ticker, p.date, p.open, p.high, p.low, p.close, p.volume
		FROM price p
		JOIN (
			SELECT ticker, MAX(date) AS max_date
			FROM price
			WHERE ticker IN (` + placeholders(len(tickers)) + `)
			GROUP BY ticker
		) latest ON p.ticker = latest.ticker AND p.date = latest.max_date
	`
	args := make([]any, len(tickers))
	for i, t := range tickers {
		args[i] = t
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price table: %w", err)
	}
	defer rows.Close()

	latest := map[string]model.PriceBar{}
	for rows.Next() {
		bar, err := scanPriceBar(rows)
		if err != nil {
			return nil, err
		}
		latest[bar.Ticker] = bar
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price table: %w", err)
	}
	return latest, nil
}

// LastDate returns the most recent stored date for a ticker, or false when
// the ticker has no stored rows. Used for incremental refreshes.
func (r *PriceRepository) LastDate(ticker string) (time.Time, bool, error) {
	var dateStr sql.NullString
	err := r.db.QueryRow(`SELECT MAX(date) FROM price WHERE ticker = ?`, ticker).Scan(&dateStr)
	if errors.Is(err, sql.ErrNoRows) || !dateStr.Valid {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query price table: %w", err)
	}
	date, err := ParseTime(dateStr.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return date, true, nil
}

func scanPriceBar(rows *sql.Rows) (model.PriceBar, error) {
	var bar model.PriceBar
	var dateStr string
	var openStr, highStr, lowStr, closeStr sql.NullString
	var volume sql.NullInt64

	err := rows.Scan(&bar.Ticker, &dateStr, &openStr, &highStr, &lowStr, &closeStr, &volume)
	if err != nil {
		return model.PriceBar{}, fmt.Errorf("failed to scan price table results: %w", err)
	}

	if bar.Date, err = ParseTime(dateStr); err != nil {
		return model.PriceBar{}, err
	}
	if bar.Open, err = nullDecimal(openStr); err != nil {
		return model.PriceBar{}, err
	}
	if bar.High, err = nullDecimal(highStr); err != nil {
		return model.PriceBar{}, err
	}
	if bar.Low, err = nullDecimal(lowStr); err != nil {
		return model.PriceBar{}, err
	}
	if bar.Close, err = nullDecimal(closeStr); err != nil {
		return model.PriceBar{}, err
	}
	if volume.Valid {
		v := volume.Int64
		bar.Volume = &v
	}
	return bar, nil
}
