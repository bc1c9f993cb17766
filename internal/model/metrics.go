package model

import "time"

// PortfolioMetrics holds the scalar risk/return statistics derived from a
// portfolio's daily value series over a date-bounded window. Derived on
// demand, never persisted.
//
// Pointer fields are nil when the statistic is undefined for the inputs
// (zero volatility, zero drawdown, non-positive cumulative growth). Values
// are unrounded float64s.
type PortfolioMetrics struct {
	PortfolioID        string    `json:"portfolioId"`
	Start              time.Time `json:"-"`
	End                time.Time `json:"-"`
	NDays              int       `json:"nDays"`
	Tickers            []string  `json:"tickers"`
	AnnReturn          *float64  `json:"annReturn"`
	AnnVolatility      *float64  `json:"annVolatility"`
	Sharpe             *float64  `json:"sharpe"`
	Sortino            *float64  `json:"sortino"`
	Calmar             *float64  `json:"calmar"`
	MaxDrawdown        float64   `json:"maxDrawdown"`
	DownsideVolatility *float64  `json:"downsideVolatility"`
	RiskFree           float64   `json:"rf"`
	MAR                float64   `json:"mar"`
}

// TickerMetrics holds the single-ticker metric reductions over a flat price
// series. Basic requests leave the advanced fields nil. All floats are
// rounded to 6 decimal digits for display.
type TickerMetrics struct {
	Ticker             string   `json:"ticker"`
	Start              string   `json:"start"`
	End                string   `json:"end,omitempty"`
	N                  int      `json:"n"`
	AnnReturn          *float64 `json:"annReturn"`
	AnnVolatility      *float64 `json:"annVolatility"`
	Sharpe             *float64 `json:"sharpe"`
	MaxDrawdown        *float64 `json:"maxDrawdown"`
	RiskFree           float64  `json:"rf"`
	MAR                *float64 `json:"mar,omitempty"`
	DownsideVolatility *float64 `json:"downsideVolatility,omitempty"`
	Sortino            *float64 `json:"sortino,omitempty"`
	Calmar             *float64 `json:"calmar,omitempty"`
	YTDReturn          *float64 `json:"ytdReturn,omitempty"`
}

// TechSignals holds momentum, moving-average cross and RSI readings for a
// single ticker. Nil fields mean the window had insufficient history.
type TechSignals struct {
	Ticker         string   `json:"ticker"`
	Start          string   `json:"start"`
	End            string   `json:"end,omitempty"`
	Count          int      `json:"count"`
	Price          *float64 `json:"price"`
	MomentumWindow int      `json:"momentumWindow"`
	Momentum       *float64 `json:"momentum"`
	SMAFastWindow  int      `json:"smaFastWindow"`
	SMAFast        *float64 `json:"smaFast"`
	SMASlowWindow  int      `json:"smaSlowWindow"`
	SMASlow        *float64 `json:"smaSlow"`
	CrossNow       bool     `json:"crossNow"`
	LastCrossDate  *string  `json:"lastCrossDate"`
	LastCrossType  *string  `json:"lastCrossType"`
	RSIPeriod      int      `json:"rsiPeriod"`
	RSI            *float64 `json:"rsi"`
}
