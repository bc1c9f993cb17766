package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/portfolio-analytics-backend/internal/apperrors"
	"github.com/quantfolio/portfolio-analytics-backend/internal/formulas"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
	"github.com/quantfolio/portfolio-analytics-backend/internal/validation"
)

// MetricsService reconstructs a portfolio's daily value series from its
// transaction ledger and price history, and reduces it to risk/return
// statistics. Everything is computed fresh per request from the durable
// stores; nothing is cached or mutated in place.
type MetricsService struct {
	transactionRepo *repository.TransactionRepository
	portfolioRepo   *repository.PortfolioRepository
	prices          *PriceService
}

// NewMetricsService creates a new MetricsService.
func NewMetricsService(
	transactionRepo *repository.TransactionRepository,
	portfolioRepo *repository.PortfolioRepository,
	prices *PriceService,
) *MetricsService {
	return &MetricsService{
		transactionRepo: transactionRepo,
		portfolioRepo:   portfolioRepo,
		prices:          prices,
	}
}

// PortfolioMetrics computes the risk/return statistics of a portfolio over
// [start, end].
//
// The value series is built on a calendar-daily grid spanning from the
// earlier of the first transaction date and the requested start, so
// positions accumulated before the window still inform the series, while
// the statistical window itself is anchored at the requested start. Ledger
// quantities and prices stay in fixed-point decimal up to the daily value;
// the return statistics are floating-point.
func (s *MetricsService) PortfolioMetrics(ctx context.Context, portfolioID string, start, end time.Time, rf, mar float64) (model.PortfolioMetrics, error) {
	if start.After(end) {
		return model.PortfolioMetrics{}, fmt.Errorf("%w: start must be before or equal to end", apperrors.ErrInvalidDateRange)
	}
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return model.PortfolioMetrics{}, err
	}
	if _, err := s.portfolioRepo.Get(portfolioID); err != nil {
		return model.PortfolioMetrics{}, err
	}

	// The ledger is fetched with an upper bound at end, so transactions
	// dated after the grid's last day can never leak into the positions.
	ledger, err := s.transactionRepo.List(portfolioID, repository.TransactionFilter{End: &end})
	if err != nil {
		return model.PortfolioMetrics{}, err
	}
	if len(ledger) == 0 {
		return model.PortfolioMetrics{}, fmt.Errorf("%w: portfolio has no transactions in the requested range", apperrors.ErrInsufficientData)
	}

	tickers := uniqueTickers(ledger)

	effectiveStart := start
	if first := ledger[0].Date; first.Before(effectiveStart) {
		effectiveStart = first
	}
	grid := dateGrid(effectiveStart, end)

	positions := reconstructPositions(ledger, tickers, grid)

	priceData, err := s.prices.HistoryWithFallback(ctx, tickers, effectiveStart, end)
	if err != nil {
		return model.PortfolioMetrics{}, err
	}
	priceGrid := pivotPrices(priceData, tickers, grid)

	// Drop tickers that resolved no price on any day of the grid.
	valid := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if priceGrid[ticker] != nil {
			valid = append(valid, ticker)
		}
	}
	if len(valid) == 0 {
		return model.PortfolioMetrics{}, fmt.Errorf("%w: price data is unavailable for the requested tickers", apperrors.ErrInsufficientData)
	}

	// Restrict to tickers actually held at some point in range.
	active := make([]string, 0, len(valid))
	for _, ticker := range valid {
		for _, qty := range positions[ticker] {
			if !qty.IsZero() {
				active = append(active, ticker)
				break
			}
		}
	}
	if len(active) == 0 {
		return model.PortfolioMetrics{}, fmt.Errorf("%w: no active positions to analyze in the selected period", apperrors.ErrInsufficientData)
	}

	values := valueSeries(active, positions, priceGrid, len(grid))

	startIdx := dayIndex(effectiveStart, start)
	degenerate := true
	for i := startIdx; i < len(values); i++ {
		if values[i] > 0 {
			degenerate = false
			break
		}
	}
	if degenerate {
		return model.PortfolioMetrics{}, fmt.Errorf("%w: portfolio value is zero throughout the selected period", apperrors.ErrInsufficientData)
	}

	returns := deriveReturns(grid, values, start)
	if len(returns) == 0 {
		return model.PortfolioMetrics{}, fmt.Errorf("%w: not enough observations to compute metrics", apperrors.ErrInsufficientData)
	}

	metrics := reduceReturns(returns, values, rf, mar)
	metrics.PortfolioID = portfolioID
	metrics.Start = start
	metrics.End = end
	metrics.Tickers = active
	return metrics, nil
}

// reduceReturns derives the scalar statistics from the daily return array
// and the underlying value series. Statistics whose denominator degenerates
// to zero are nil rather than infinite.
func reduceReturns(returns, values []float64, rf, mar float64) model.PortfolioMetrics {
	metrics := model.PortfolioMetrics{
		NDays:    len(returns),
		RiskFree: rf,
		MAR:      mar,
	}

	rfDaily := formulas.DailyRate(rf)
	marDaily := formulas.DailyRate(mar)

	if annReturn, ok := formulas.GeometricAnnualReturn(returns); ok {
		metrics.AnnReturn = formulas.Ptr(annReturn)
	}

	stdDaily := formulas.PopStdDev(returns)
	if stdDaily > 0 {
		metrics.AnnVolatility = formulas.Ptr(formulas.AnnualizeVolatility(stdDaily))
		mean := formulas.Mean(returns)
		metrics.Sharpe = formulas.Ptr(formulas.AnnualizeVolatility((mean - rfDaily) / stdDaily))
	}

	// A window with no sub-MAR returns has zero downside deviation; that is
	// surfaced as nil, which in turn makes Sortino nil.
	downsideDaily := formulas.DownsideRMS(returns, marDaily)
	if downsideDaily > 0 {
		downside := formulas.AnnualizeVolatility(downsideDaily)
		metrics.DownsideVolatility = formulas.Ptr(downside)
		if metrics.AnnReturn != nil {
			metrics.Sortino = formulas.Ptr((*metrics.AnnReturn - mar) / downside)
		}
	}

	metrics.MaxDrawdown = formulas.MaxDrawdown(values)
	if metrics.MaxDrawdown < 0 && metrics.AnnReturn != nil {
		metrics.Calmar = formulas.Ptr(*metrics.AnnReturn / -metrics.MaxDrawdown)
	}

	return metrics
}

// dateGrid builds the inclusive calendar-daily grid from start to end.
func dateGrid(start, end time.Time) []time.Time {
	start = midnightUTC(start)
	end = midnightUTC(end)

	grid := []time.Time{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		grid = append(grid, d)
	}
	return grid
}

// dayIndex returns the grid offset of a date relative to the grid start.
func dayIndex(gridStart, date time.Time) int {
	idx := int(midnightUTC(date).Sub(midnightUTC(gridStart)).Hours() / 24)
	if idx < 0 {
		return 0
	}
	return idx
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// reconstructPositions builds the per-ticker cumulative quantity series
// aligned 1:1 with the date grid. Each BUY adds its quantity and each SELL
// subtracts it on the transaction date; the deltas are then cumulative-summed
// across the grid with zero-fill for days without activity, so the quantity
// at any date is exactly the net of all transactions dated on or before it.
// DIVIDEND/FEE entries never affect quantity.
func reconstructPositions(ledger []model.Transaction, tickers []string, grid []time.Time) map[string][]decimal.Decimal {
	if len(grid) == 0 {
		return map[string][]decimal.Decimal{}
	}
	gridStart := grid[0]

	deltas := make(map[string][]decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		deltas[ticker] = make([]decimal.Decimal, len(grid))
	}

	for _, tx := range ledger {
		if tx.Type != model.TransactionBuy && tx.Type != model.TransactionSell {
			continue
		}
		if tx.Quantity == nil {
			continue
		}
		qty := *tx.Quantity
		if tx.Type == model.TransactionSell {
			qty = qty.Neg()
		}
		idx := dayIndex(gridStart, tx.Date)
		if idx >= len(grid) {
			continue
		}
		deltas[tx.Ticker][idx] = deltas[tx.Ticker][idx].Add(qty)
	}

	positions := make(map[string][]decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		series := make([]decimal.Decimal, len(grid))
		running := decimal.Zero
		for i, delta := range deltas[ticker] {
			running = running.Add(delta)
			series[i] = running
		}
		positions[ticker] = series
	}
	return positions
}

// pivotPrices reindexes raw (date, close) points onto the daily grid and
// forward-fills each ticker's last known close across gaps such as
// non-trading days. Days before a ticker's first observation stay nil;
// prices are never backward-filled. A ticker with no points at all maps
// to a nil slice.
func pivotPrices(priceData map[string][]model.PricePoint, tickers []string, grid []time.Time) map[string][]*decimal.Decimal {
	gridStart := grid[0]

	pivot := make(map[string][]*decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		points := priceData[ticker]
		if len(points) == 0 {
			pivot[ticker] = nil
			continue
		}

		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

		series := make([]*decimal.Decimal, len(grid))
		onGrid := false
		for _, point := range points {
			idx := dayIndex(gridStart, point.Date)
			if idx >= len(grid) {
				continue
			}
			p := point.Close
			series[idx] = &p
			onGrid = true
		}
		if !onGrid {
			pivot[ticker] = nil
			continue
		}

		var last *decimal.Decimal
		for i := range series {
			if series[i] != nil {
				last = series[i]
			} else {
				series[i] = last
			}
		}
		pivot[ticker] = series
	}
	return pivot
}

// valueSeries computes the daily portfolio value over the grid:
// value[day] = sum over active tickers of quantity[day] x price[day].
// Days where a ticker has no resolved price contribute zero for it. The sum
// runs in decimal and converts to float64 only for the statistics.
func valueSeries(active []string, positions map[string][]decimal.Decimal, priceGrid map[string][]*decimal.Decimal, days int) []float64 {
	values := make([]float64, days)
	for day := 0; day < days; day++ {
		total := decimal.Zero
		for _, ticker := range active {
			price := priceGrid[ticker][day]
			if price == nil {
				continue
			}
			total = total.Add(positions[ticker][day].Mul(*price))
		}
		values[day] = total.InexactFloat64()
	}
	return values
}

// deriveReturns builds the daily-return array from the value series. A pair
// of consecutive days contributes value[t]/value[t-1] - 1 when the prior
// day's date is on or after the requested start and the prior value is
// positive; pairs with a non-positive prior value are skipped, not errors.
// Anchoring at start keeps the statistical window honest while the earlier
// part of the series only provides continuity.
func deriveReturns(grid []time.Time, values []float64, start time.Time) []float64 {
	start = midnightUTC(start)

	returns := []float64{}
	for i := 1; i < len(values); i++ {
		if grid[i-1].Before(start) {
			continue
		}
		if values[i-1] <= 0 {
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}

// uniqueTickers extracts the sorted distinct tickers of a ledger.
func uniqueTickers(ledger []model.Transaction) []string {
	seen := map[string]bool{}
	tickers := []string{}
	for _, tx := range ledger {
		if !seen[tx.Ticker] {
			seen[tx.Ticker] = true
			tickers = append(tickers, tx.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers
}
