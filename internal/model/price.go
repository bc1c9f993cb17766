package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar represents one stored daily OHLCV bar for a ticker.
// Bars are unique per (ticker, date) and shared read-only reference data,
// independent of any portfolio. Close is the canonical valuation price.
type PriceBar struct {
	Ticker string           `json:"ticker"`
	Date   time.Time        `json:"date"`
	Open   *decimal.Decimal `json:"open,omitempty"`
	High   *decimal.Decimal `json:"high,omitempty"`
	Low    *decimal.Decimal `json:"low,omitempty"`
	Close  *decimal.Decimal `json:"close,omitempty"`
	Volume *int64           `json:"volume,omitempty"`
}

// PricePoint is a (date, close) observation, the only slice of a bar the
// valuation engine needs.
type PricePoint struct {
	Date  time.Time
	Close decimal.Decimal
}
