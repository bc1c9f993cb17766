package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMaxDrawdown tests the peak-to-trough decline measure.
//
// WHY: The result must be <= 0 always and exactly 0 only for non-decreasing
// series; Calmar's denominator and the 422 policies depend on that sign
// contract.
func TestMaxDrawdown(t *testing.T) {
	t.Run("finds the deepest decline from a running peak", func(t *testing.T) {
		// Peak 120, trough 90: drawdown -25%.
		values := []float64{100, 120, 90, 110}

		assert.InDelta(t, -0.25, MaxDrawdown(values), 1e-12)
	})

	t.Run("zero for a non-decreasing series", func(t *testing.T) {
		assert.Zero(t, MaxDrawdown([]float64{100, 100, 105, 110}))
	})

	t.Run("negative whenever any value falls below an earlier one", func(t *testing.T) {
		assert.Negative(t, MaxDrawdown([]float64{100, 99.99, 200}))
	})

	t.Run("zero for empty input", func(t *testing.T) {
		assert.Zero(t, MaxDrawdown(nil))
	})

	t.Run("ignores drawdowns from a non-positive peak", func(t *testing.T) {
		// No positive peak is ever established, so no drawdown is defined.
		assert.Zero(t, MaxDrawdown([]float64{0, -5, -10}))
	})
}

// TestEquityMaxDrawdown tests the drawdown of the compounded equity curve.
func TestEquityMaxDrawdown(t *testing.T) {
	t.Run("matches drawdown of the cumulative products", func(t *testing.T) {
		// Equity: 1.1, 0.99, 1.089 -> trough 0.99 from peak 1.1 = -10%.
		returns := []float64{0.10, -0.10, 0.10}

		assert.InDelta(t, -0.10, EquityMaxDrawdown(returns), 1e-9)
	})

	t.Run("zero for all non-negative returns", func(t *testing.T) {
		assert.Zero(t, EquityMaxDrawdown([]float64{0.01, 0, 0.02}))
	})
}
