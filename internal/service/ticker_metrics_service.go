package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/quantfolio/portfolio-analytics-backend/internal/apperrors"
	"github.com/quantfolio/portfolio-analytics-backend/internal/formulas"
	"github.com/quantfolio/portfolio-analytics-backend/internal/marketdata"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
)

// SignalOptions carries the lookback windows for technical signals.
type SignalOptions struct {
	MomentumWindow int // trailing days for the momentum return
	FastWindow     int // fast simple moving average
	SlowWindow     int // slow simple moving average
	RSIPeriod      int
}

// DefaultSignalOptions are the conventional windows: 60-day momentum,
// 20/50 SMA cross, 14-day RSI.
func DefaultSignalOptions() SignalOptions {
	return SignalOptions{MomentumWindow: 60, FastWindow: 20, SlowWindow: 50, RSIPeriod: 14}
}

// TickerMetricsService computes metric and signal reductions over a single
// ticker's daily price series, fetched straight from the external provider.
// Unlike the portfolio engine these are flat-series calculations with no
// ledger involved.
type TickerMetricsService struct {
	provider marketdata.Provider
}

// NewTickerMetricsService creates a new TickerMetricsService.
func NewTickerMetricsService(provider marketdata.Provider) *TickerMetricsService {
	return &TickerMetricsService{provider: provider}
}

// Basic computes annualized return/volatility, Sharpe and max drawdown from
// daily closes. Requires at least 2 closes. Sharpe is nil when volatility is
// zero. Results are rounded to 6 decimal digits.
func (s *TickerMetricsService) Basic(ctx context.Context, ticker string, start, end time.Time, rf float64) (model.TickerMetrics, error) {
	bars, err := s.history(ctx, ticker, start, end)
	if err != nil {
		return model.TickerMetrics{}, err
	}
	return basicFromBars(bars, ticker, start, end, rf)
}

// basicFromBars is the shared reduction behind Basic and Advanced.
func basicFromBars(bars []marketdata.Bar, ticker string, start, end time.Time, rf float64) (model.TickerMetrics, error) {
	returns, err := dailyReturns(bars)
	if err != nil {
		return model.TickerMetrics{}, err
	}

	metrics := model.TickerMetrics{
		Ticker:   strings.ToUpper(ticker),
		Start:    start.Format("2006-01-02"),
		End:      end.Format("2006-01-02"),
		N:        len(bars),
		RiskFree: rf,
	}

	meanDaily := formulas.Mean(returns)
	stdDaily := formulas.StdDev(returns)
	annReturn := math.Pow(1+meanDaily, formulas.TradingDays) - 1
	annVol := formulas.AnnualizeVolatility(stdDaily)

	metrics.AnnReturn = formulas.Round6Ptr(formulas.Ptr(annReturn))
	metrics.AnnVolatility = formulas.Round6Ptr(formulas.Ptr(annVol))
	if annVol > 0 {
		annExcess := (meanDaily - formulas.DailyRate(rf)) * formulas.TradingDays
		metrics.Sharpe = formulas.Round6Ptr(formulas.Ptr(annExcess / annVol))
	}
	metrics.MaxDrawdown = formulas.Round6Ptr(formulas.Ptr(formulas.EquityMaxDrawdown(returns)))

	return metrics, nil
}

// Advanced extends Basic with downside volatility, Sortino, Calmar and the
// year-to-date return. Downside volatility is nil when no return falls below
// the daily MAR, which also makes Sortino nil; Calmar is nil when max
// drawdown is zero; YTD is nil with fewer than 2 observations in the end
// year.
func (s *TickerMetricsService) Advanced(ctx context.Context, ticker string, start, end time.Time, rf, mar float64) (model.TickerMetrics, error) {
	bars, err := s.history(ctx, ticker, start, end)
	if err != nil {
		return model.TickerMetrics{}, err
	}

	metrics, err := basicFromBars(bars, ticker, start, end, rf)
	if err != nil {
		return model.TickerMetrics{}, err
	}
	metrics.MAR = &mar

	returns, err := dailyReturns(bars)
	if err != nil {
		return model.TickerMetrics{}, err
	}

	downsideDaily := formulas.DownsideStdDev(returns, formulas.DailyRate(mar))
	if downsideDaily > 0 {
		downside := formulas.AnnualizeVolatility(downsideDaily)
		metrics.DownsideVolatility = formulas.Round6Ptr(formulas.Ptr(downside))
		if metrics.AnnReturn != nil {
			metrics.Sortino = formulas.Round6Ptr(formulas.Ptr((*metrics.AnnReturn - mar) / downside))
		}
	}

	if metrics.MaxDrawdown != nil && *metrics.MaxDrawdown < 0 && metrics.AnnReturn != nil {
		metrics.Calmar = formulas.Round6Ptr(formulas.Ptr(*metrics.AnnReturn / -*metrics.MaxDrawdown))
	}

	metrics.YTDReturn = formulas.Round6Ptr(ytdReturn(bars, end))

	return metrics, nil
}

// Signals computes momentum, the SMA cross state and RSI. The series must
// hold at least max(momentum window, slow window)+1 observations.
func (s *TickerMetricsService) Signals(ctx context.Context, ticker string, start, end time.Time, opts SignalOptions) (model.TechSignals, error) {
	bars, err := s.history(ctx, ticker, start, end)
	if err != nil {
		return model.TechSignals{}, err
	}

	required := opts.MomentumWindow
	if opts.SlowWindow > required {
		required = opts.SlowWindow
	}
	required++
	if len(bars) < required {
		return model.TechSignals{}, fmt.Errorf(
			"%w: at least %d observations required (window=%d, slow=%d)",
			apperrors.ErrInsufficientData, required, opts.MomentumWindow, opts.SlowWindow,
		)
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	signals := model.TechSignals{
		Ticker:         strings.ToUpper(ticker),
		Start:          start.Format("2006-01-02"),
		End:            end.Format("2006-01-02"),
		Count:          len(bars),
		Price:          formulas.Round6Ptr(formulas.Ptr(closes[len(closes)-1])),
		MomentumWindow: opts.MomentumWindow,
		SMAFastWindow:  opts.FastWindow,
		SMASlowWindow:  opts.SlowWindow,
		RSIPeriod:      opts.RSIPeriod,
	}

	signals.Momentum = formulas.Round6Ptr(formulas.Momentum(closes, opts.MomentumWindow))

	smaFast := formulas.SMA(closes, opts.FastWindow)
	smaSlow := formulas.SMA(closes, opts.SlowWindow)
	if smaFast != nil && smaSlow != nil {
		last := len(closes) - 1
		signals.SMAFast = formulas.Round6Ptr(formulas.Ptr(smaFast[last]))
		signals.SMASlow = formulas.Round6Ptr(formulas.Ptr(smaSlow[last]))
		signals.CrossNow = smaFast[last] > smaSlow[last]

		// Both averages are only defined once the slow window has warmed up.
		if date, crossType, ok := lastCross(smaFast, smaSlow, opts.SlowWindow-1, bars); ok {
			signals.LastCrossDate = &date
			signals.LastCrossType = &crossType
		}
	}

	signals.RSI = formulas.Round6Ptr(formulas.RSI(closes, opts.RSIPeriod))

	return signals, nil
}

// lastCross finds the most recent day the fast average crossed the slow one,
// scanning from the first index where both are valid. Returns the crossing
// date and "golden" (fast rose above slow) or "death" (fast fell below).
func lastCross(smaFast, smaSlow []float64, firstValid int, bars []marketdata.Bar) (string, string, bool) {
	date := ""
	crossType := ""
	found := false
	for i := firstValid + 1; i < len(smaFast); i++ {
		was := smaFast[i-1] > smaSlow[i-1]
		is := smaFast[i] > smaSlow[i]
		if was == is {
			continue
		}
		date = bars[i].Date.Format("2006-01-02")
		if is {
			crossType = "golden"
		} else {
			crossType = "death"
		}
		found = true
	}
	return date, crossType, found
}

// ytdReturn computes last/first - 1 over the closes dated in the end year.
// Returns nil with fewer than 2 observations in that year.
func ytdReturn(bars []marketdata.Bar, end time.Time) *float64 {
	yearStart := time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	var first, last float64
	count := 0
	for _, bar := range bars {
		if bar.Date.Before(yearStart) {
			continue
		}
		if count == 0 {
			first = bar.Close
		}
		last = bar.Close
		count++
	}
	if count < 2 || first == 0 {
		return nil
	}
	return formulas.Ptr(last/first - 1)
}

// history fetches the daily provider series and enforces the minimum
// observation count shared by all flat-series metrics.
func (s *TickerMetricsService) history(ctx context.Context, ticker string, start, end time.Time) ([]marketdata.Bar, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: start must be before or equal to end", apperrors.ErrInvalidDateRange)
	}

	bars, err := s.provider.History(ctx, strings.ToUpper(strings.TrimSpace(ticker)), start, end, "1d")
	if err != nil {
		return nil, mapProviderError(ticker, err)
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: at least 2 closing prices required", apperrors.ErrInsufficientData)
	}
	return bars, nil
}

// dailyReturns converts bars to simple daily returns.
func dailyReturns(bars []marketdata.Bar) ([]float64, error) {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	returns := formulas.Returns(closes)
	if len(returns) == 0 {
		return nil, fmt.Errorf("%w: no valid returns in the requested range", apperrors.ErrInsufficientData)
	}
	return returns, nil
}
