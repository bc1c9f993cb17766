package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDays is the number of trading days per year used for annualization.
const TradingDays = 252

// Returns converts a price series to simple percentage returns.
// Returns[i] = Price[i+1]/Price[i] - 1. Entries with a non-positive prior
// price are skipped.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 {
			returns = append(returns, prices[i]/prices[i-1]-1)
		}
	}
	return returns
}

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (ddof=1).
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// PopStdDev calculates the population standard deviation (ddof=0).
// The portfolio engine uses this variant.
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopStdDev(data, nil)
}

// DailyRate converts an annual rate to its daily compounded equivalent:
// (1+annual)^(1/252) - 1.
func DailyRate(annual float64) float64 {
	if annual == 0 {
		return 0
	}
	return math.Pow(1+annual, 1.0/TradingDays) - 1
}

// AnnualizeVolatility scales a daily standard deviation by sqrt(252).
func AnnualizeVolatility(dailyStd float64) float64 {
	return dailyStd * math.Sqrt(TradingDays)
}

// GeometricAnnualReturn compounds n daily returns and annualizes the growth
// factor to 252/n. The second result is false when the cumulative growth
// factor is non-positive, in which case the annualized return is undefined.
func GeometricAnnualReturn(returns []float64) (float64, bool) {
	if len(returns) == 0 {
		return 0, false
	}
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	if growth <= 0 {
		return 0, false
	}
	return math.Pow(growth, TradingDays/float64(len(returns))) - 1, true
}

// DownsideRMS computes the root-mean-square deviation below the threshold:
// sqrt(mean((r - threshold)^2)) over returns strictly below threshold.
// Returns 0 when no return falls below the threshold.
func DownsideRMS(returns []float64, threshold float64) float64 {
	var sum float64
	var n int
	for _, r := range returns {
		if r < threshold {
			d := r - threshold
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// DownsideStdDev computes the sample standard deviation of the returns
// strictly below the threshold. Returns 0 when fewer than two returns fall
// below it. The single-ticker advanced metrics use this variant.
func DownsideStdDev(returns []float64, threshold float64) float64 {
	downside := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < threshold {
			downside = append(downside, r)
		}
	}
	return StdDev(downside)
}

// Round6 rounds to 6 decimal digits, the display precision of the
// single-ticker metric endpoints.
func Round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}

// Round6Ptr rounds a nullable value to 6 decimal digits, preserving nil.
func Round6Ptr(x *float64) *float64 {
	if x == nil {
		return nil
	}
	v := Round6(*x)
	return &v
}

// Ptr returns a pointer to v. Convenience for nullable metric fields.
func Ptr(v float64) *float64 { return &v }
