package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/quantfolio/portfolio-analytics-backend/internal/marketdata"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
	"github.com/quantfolio/portfolio-analytics-backend/internal/validation"
)

// Display precision for snapshot output: prices 4dp, values/PnL 2dp,
// quantities 8dp. Rounding is half up.
const (
	snapshotPriceQuant = 4
	snapshotValueQuant = 2
)

// PositionService computes current per-ticker holdings from the full
// transaction ledger, marked to the latest available price.
type PositionService struct {
	transactionRepo *repository.TransactionRepository
	portfolioRepo   *repository.PortfolioRepository
	priceRepo       *repository.PriceRepository
	provider        marketdata.Provider
	logger          zerolog.Logger
}

// NewPositionService creates a new PositionService.
func NewPositionService(
	transactionRepo *repository.TransactionRepository,
	portfolioRepo *repository.PortfolioRepository,
	priceRepo *repository.PriceRepository,
	provider marketdata.Provider,
	logger zerolog.Logger,
) *PositionService {
	return &PositionService{
		transactionRepo: transactionRepo,
		portfolioRepo:   portfolioRepo,
		priceRepo:       priceRepo,
		provider:        provider,
		logger:          logger,
	}
}

// Compute returns the portfolio's current positions, sorted by ticker.
// Tickers whose net signed quantity is exactly zero are dropped. The market
// price is the latest stored close; tickers without one fall back to the
// provider's last close, and a provider failure there is isolated to that
// ticker: it surfaces with a nil market price instead of failing the request.
func (s *PositionService) Compute(ctx context.Context, portfolioID string) ([]model.Position, error) {
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return nil, err
	}
	if _, err := s.portfolioRepo.Get(portfolioID); err != nil {
		return nil, err
	}

	aggregates, err := s.transactionRepo.AggregatePositions(portfolioID)
	if err != nil {
		return nil, err
	}

	held := make([]model.PositionAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		if !agg.Quantity.IsZero() {
			held = append(held, agg)
		}
	}
	if len(held) == 0 {
		return []model.Position{}, nil
	}

	tickers := make([]string, len(held))
	for i, agg := range held {
		tickers[i] = agg.Ticker
	}

	latest, err := s.priceRepo.Latest(tickers)
	if err != nil {
		return nil, err
	}

	marketPrices := map[string]decimal.Decimal{}
	for ticker, bar := range latest {
		if bar.Close != nil {
			marketPrices[ticker] = *bar.Close
		}
	}

	// Fallback lookups run in parallel and never abort the snapshot.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, ticker := range tickers {
		if _, ok := marketPrices[ticker]; ok {
			continue
		}
		g.Go(func() error {
			quote, err := s.provider.LastClose(gctx, ticker)
			if err != nil {
				s.logger.Debug().Err(err).Str("ticker", ticker).Msg("fallback price lookup failed")
				return nil
			}
			mu.Lock()
			marketPrices[ticker] = decimal.NewFromFloat(quote.Close).Round(priceQuant)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Aggregates arrive ordered by ticker, so the output is already sorted.
	positions := make([]model.Position, 0, len(held))
	for _, agg := range held {
		quantity := agg.Quantity.Round(ledgerQuant)
		avgCost := agg.Cost.Div(quantity)

		position := model.Position{
			Ticker:        agg.Ticker,
			Quantity:      quantity,
			AvgCost:       avgCost.Round(snapshotPriceQuant),
			MarketValue:   decimal.Zero.Round(snapshotValueQuant),
			UnrealizedPnL: decimal.Zero.Round(snapshotValueQuant),
		}
		if price, ok := marketPrices[agg.Ticker]; ok {
			rounded := price.Round(snapshotPriceQuant)
			position.MarketPrice = &rounded
			position.MarketValue = price.Mul(quantity).Round(snapshotValueQuant)
			position.UnrealizedPnL = price.Sub(avgCost).Mul(quantity).Round(snapshotValueQuant)
		}
		positions = append(positions, position)
	}
	return positions, nil
}
