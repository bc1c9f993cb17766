package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RSI calculates the Relative Strength Index over the closing prices.
//
// RSI = 100 - (100 / (1 + RS)), RS = average gain / average loss over the
// period, exponentially smoothed. Returns nil if fewer than period+1 closes
// are available or the result is NaN.
func RSI(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	rsi := talib.Rsi(closes, period)
	if len(rsi) == 0 {
		return nil
	}
	last := rsi[len(rsi)-1]
	if math.IsNaN(last) {
		return nil
	}
	return &last
}

// SMA calculates the simple moving average series over the closing prices.
// Entries before index period-1 are part of the warmup and are not valid.
func SMA(closes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}
	return talib.Sma(closes, period)
}

// Momentum computes the percentage return over the trailing window:
// closes[last] / closes[last-window] - 1. Returns nil when the series is
// shorter than window+1 or the reference close is non-positive.
func Momentum(closes []float64, window int) *float64 {
	if len(closes) < window+1 {
		return nil
	}
	ref := closes[len(closes)-1-window]
	if ref <= 0 {
		return nil
	}
	m := closes[len(closes)-1]/ref - 1
	return &m
}
