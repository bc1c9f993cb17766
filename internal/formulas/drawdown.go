package formulas

// MaxDrawdown computes the most negative decline from a running peak of the
// value series. drawdown[t] = value[t]/peak[t] - 1 where peak[t] > 0, else 0.
// The result is always <= 0 and is exactly 0 iff the series never falls
// below an earlier value.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		var dd float64
		if peak > 0 {
			dd = v/peak - 1
		}
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// EquityMaxDrawdown computes the max drawdown of the cumulative equity curve
// built from a return series, i.e. the compounded (1+r) products. Used by the
// single-ticker metrics, which have returns rather than portfolio values.
func EquityMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	equity := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		equity[i] = acc
	}
	return MaxDrawdown(equity)
}
