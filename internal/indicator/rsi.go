package indicator

import "math"

// RSI computes the Relative Strength Index over a rolling window of
// `period` price deltas, using simple rolling means of gains and losses.
//
// The returned slice is aligned with prices: entries before the window is
// filled (index < period) are NaN, which callers must treat as undefined
// rather than an error. When the rolling average loss is exactly zero the
// RSI is defined as 100 — no losses means maximal strength — so the
// division is guarded instead of letting +Inf leak out.
func RSI(prices []float64, period int) []float64 {
	rsi := make([]float64, len(prices))
	for i := range rsi {
		rsi[i] = math.NaN()
	}

	if period < 1 || len(prices) < period+1 {
		return rsi
	}

	gains := make([]float64, len(prices)-1)
	losses := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	for i := period; i < len(prices); i++ {
		var gainSum, lossSum float64
		for j := i - period; j < i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		if avgLoss == 0 {
			rsi[i] = 100
			continue
		}

		rs := avgGain / avgLoss
		rsi[i] = 100 - 100/(1+rs)
	}

	return rsi
}

// LatestRSI returns the most recent defined RSI value, or NaN when the
// series never filled the window.
func LatestRSI(rsi []float64) float64 {
	for i := len(rsi) - 1; i >= 0; i-- {
		if !math.IsNaN(rsi[i]) {
			return rsi[i]
		}
	}
	return math.NaN()
}
