package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/quantfolio/portfolio-analytics-backend/internal/apperrors"
	"github.com/quantfolio/portfolio-analytics-backend/internal/marketdata"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
)

// priceQuant is the fractional precision of ingested provider prices.
const priceQuant = 6

// maxConcurrentFetches bounds parallel provider calls within one request.
const maxConcurrentFetches = 4

// PriceService is the boundary between the analytics engine and price data.
// It serves stored bars and falls back to the external provider for tickers
// that have no stored history, and it owns ingestion (upserting provider
// bars into the store).
type PriceService struct {
	priceRepo       *repository.PriceRepository
	transactionRepo *repository.TransactionRepository
	provider        marketdata.Provider
	logger          zerolog.Logger
}

// NewPriceService creates a new PriceService.
func NewPriceService(
	priceRepo *repository.PriceRepository,
	transactionRepo *repository.TransactionRepository,
	provider marketdata.Provider,
	logger zerolog.Logger,
) *PriceService {
	return &PriceService{
		priceRepo:       priceRepo,
		transactionRepo: transactionRepo,
		provider:        provider,
		logger:          logger,
	}
}

// LastClose returns the most recent close for a ticker: the latest stored
// bar when one exists, otherwise the provider's last close.
func (s *PriceService) LastClose(ctx context.Context, ticker string) (model.PricePoint, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	latest, err := s.priceRepo.Latest([]string{ticker})
	if err != nil {
		return model.PricePoint{}, err
	}
	if bar, ok := latest[ticker]; ok && bar.Close != nil {
		return model.PricePoint{Date: bar.Date, Close: *bar.Close}, nil
	}

	quote, err := s.provider.LastClose(ctx, ticker)
	if err != nil {
		return model.PricePoint{}, mapProviderError(ticker, err)
	}
	return model.PricePoint{
		Date:  quote.Date,
		Close: decimal.NewFromFloat(quote.Close).Round(priceQuant),
	}, nil
}

// Range returns the stored bars for a ticker within [start, end].
func (s *PriceService) Range(ticker string, start, end time.Time) ([]model.PriceBar, error) {
	if start.After(end) {
		return nil, apperrors.ErrInvalidDateRange
	}
	return s.priceRepo.RangeBars(strings.ToUpper(strings.TrimSpace(ticker)), start, end)
}

// Refresh fetches provider history for a ticker and upserts it into the
// store, keyed on (ticker, date). Re-running with overlapping ranges leaves
// one row per day carrying the latest values. Returns the rows written.
func (s *PriceService) Refresh(ctx context.Context, ticker string, start, end time.Time) (int, error) {
	if start.After(end) {
		return 0, apperrors.ErrInvalidDateRange
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	bars, err := s.provider.History(ctx, ticker, start, end, "1d")
	if err != nil {
		return 0, mapProviderError(ticker, err)
	}
	return s.priceRepo.Upsert(ticker, toPriceBars(ticker, bars))
}

// RefreshAll refreshes every ticker referenced by any transaction, fetching
// from the day after the last stored bar (or one year back for tickers with
// no history). Per-ticker failures are logged and skipped so one bad symbol
// does not starve the rest. Runs daily from the scheduler.
func (s *PriceService) RefreshAll(ctx context.Context) {
	tickers, err := s.transactionRepo.DistinctTickers()
	if err != nil {
		s.logger.Error().Err(err).Msg("price refresh: failed to list tickers")
		return
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, ticker := range tickers {
		g.Go(func() error {
			start := now.AddDate(-1, 0, 0)
			if last, ok, err := s.priceRepo.LastDate(ticker); err != nil {
				s.logger.Error().Err(err).Str("ticker", ticker).Msg("price refresh: last date lookup failed")
				return nil
			} else if ok {
				start = last.AddDate(0, 0, 1)
			}
			if start.After(now) {
				return nil
			}

			count, err := s.Refresh(ctx, ticker, start, now)
			if err != nil {
				s.logger.Warn().Err(err).Str("ticker", ticker).Msg("price refresh failed")
				return nil
			}
			s.logger.Info().Str("ticker", ticker).Int("bars", count).Msg("price refresh complete")
			return nil
		})
	}
	_ = g.Wait()
}

// HistoryWithFallback returns (date, close) series for a set of tickers over
// [start, end]. Tickers with stored rows are served from the store; tickers
// with none are fetched from the provider, in parallel, after the store
// lookup resolves which are missing. Every requested ticker must resolve:
// a ticker with no data anywhere fails the whole request, wrapped with the
// ticker for context, as does any other provider failure.
func (s *PriceService) HistoryWithFallback(ctx context.Context, tickers []string, start, end time.Time) (map[string][]model.PricePoint, error) {
	stored, err := s.priceRepo.RangeCloses(tickers, start, end)
	if err != nil {
		return nil, err
	}

	missing := []string{}
	for _, ticker := range tickers {
		if len(stored[ticker]) == 0 {
			missing = append(missing, ticker)
		}
	}
	sort.Strings(missing)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, ticker := range missing {
		g.Go(func() error {
			bars, err := s.provider.History(ctx, ticker, start, end, "1d")
			if err != nil {
				return fmt.Errorf("missing price data for %s: %w", ticker, mapProviderError(ticker, err))
			}
			points := make([]model.PricePoint, 0, len(bars))
			for _, bar := range bars {
				points = append(points, model.PricePoint{
					Date:  bar.Date,
					Close: decimal.NewFromFloat(bar.Close).Round(priceQuant),
				})
			}
			mu.Lock()
			stored[ticker] = points
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, points := range stored {
		total += len(points)
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: no price data available for requested tickers", apperrors.ErrInsufficientData)
	}
	return stored, nil
}

// mapProviderError translates provider failures into the error taxonomy:
// a lookup miss is not-found, anything else is an upstream failure.
func mapProviderError(ticker string, err error) error {
	if errors.Is(err, marketdata.ErrNoData) {
		return fmt.Errorf("%w: %s", apperrors.ErrTickerNotFound, ticker)
	}
	return fmt.Errorf("%w: %s: %v", apperrors.ErrProviderUnavailable, ticker, err)
}

// toPriceBars converts provider bars into storable rows for one ticker.
func toPriceBars(ticker string, bars []marketdata.Bar) []model.PriceBar {
	rows := make([]model.PriceBar, 0, len(bars))
	for _, bar := range bars {
		open := decimal.NewFromFloat(bar.Open).Round(priceQuant)
		high := decimal.NewFromFloat(bar.High).Round(priceQuant)
		low := decimal.NewFromFloat(bar.Low).Round(priceQuant)
		closePrice := decimal.NewFromFloat(bar.Close).Round(priceQuant)
		volume := bar.Volume
		rows = append(rows, model.PriceBar{
			Ticker: ticker,
			Date:   bar.Date,
			Open:   &open,
			High:   &high,
			Low:    &low,
			Close:  &closePrice,
			Volume: &volume,
		})
	}
	return rows
}
