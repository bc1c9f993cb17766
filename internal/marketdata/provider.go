package marketdata

import (
	"context"
	"errors"
	"time"
)

// ErrNoData indicates the provider has no price data for the requested
// ticker or range. This is a lookup miss, not a provider failure.
var ErrNoData = errors.New("no price data for ticker")

// Provider fetches historical and latest prices from an external market-data
// source. Calls are blocking I/O; callers dispatch them off the request path
// and may run calls for distinct tickers in parallel.
//
// Implementations return ErrNoData for a ticker/range with no data and any
// other error for network or lookup failures.
type Provider interface {
	History(ctx context.Context, ticker string, start, end time.Time, interval string) ([]Bar, error)
	LastClose(ctx context.Context, ticker string) (Quote, error)
}
