package testutil

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/quantfolio/portfolio-analytics-backend/internal/marketdata"
)

// FakeProvider is an in-memory marketdata.Provider for tests. It serves
// canned daily closes per ticker and records how often each ticker was
// fetched. Tickers without data return ErrNoData; tickers in Failing return
// their configured error.
type FakeProvider struct {
	Closes  map[string]map[time.Time]float64
	Failing map[string]error
	Calls   map[string]int
}

// NewFakeProvider creates an empty FakeProvider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Closes:  map[string]map[time.Time]float64{},
		Failing: map[string]error{},
		Calls:   map[string]int{},
	}
}

// SetCloses replaces the canned closes for a ticker.
func (p *FakeProvider) SetCloses(ticker string, closes map[time.Time]float64) {
	p.Closes[ticker] = closes
}

// History returns the canned bars within [start, end], date-ordered.
func (p *FakeProvider) History(ctx context.Context, ticker string, start, end time.Time, interval string) ([]marketdata.Bar, error) {
	p.Calls[ticker]++

	if err, ok := p.Failing[ticker]; ok {
		return nil, err
	}
	closes, ok := p.Closes[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", marketdata.ErrNoData, ticker)
	}

	bars := []marketdata.Bar{}
	for date, close := range closes {
		if date.Before(start) || date.After(end) {
			continue
		}
		bars = append(bars, marketdata.Bar{
			Date:   date,
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
			Volume: 1000,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", marketdata.ErrNoData, ticker)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// LastClose returns the most recent canned close for the ticker.
func (p *FakeProvider) LastClose(ctx context.Context, ticker string) (marketdata.Quote, error) {
	p.Calls[ticker]++

	if err, ok := p.Failing[ticker]; ok {
		return marketdata.Quote{}, err
	}
	closes, ok := p.Closes[ticker]
	if !ok || len(closes) == 0 {
		return marketdata.Quote{}, fmt.Errorf("%w: %s", marketdata.ErrNoData, ticker)
	}

	var latest time.Time
	for date := range closes {
		if date.After(latest) {
			latest = date
		}
	}
	return marketdata.Quote{Ticker: ticker, Date: latest, Close: closes[latest]}, nil
}
