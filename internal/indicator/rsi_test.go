package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSI_MonotonicIncreasing(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	rsi := RSI(prices, 14)

	// No losses anywhere, so every defined value is exactly 100.
	for i := 14; i < len(rsi); i++ {
		assert.Equal(t, 100.0, rsi[i], "index %d", i)
	}
}

func TestRSI_MonotonicDecreasing(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 - float64(i)
	}

	rsi := RSI(prices, 14)

	// No gains anywhere: RS = 0 and RSI = 0.
	for i := 14; i < len(rsi); i++ {
		assert.Equal(t, 0.0, rsi[i], "index %d", i)
	}
}

func TestRSI_LeadingWindowUndefined(t *testing.T) {
	prices := []float64{100, 101, 102, 101, 103, 104, 102, 105, 106, 104, 107, 108, 106, 109, 110}

	rsi := RSI(prices, 14)

	require.Len(t, rsi, len(prices))
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should be undefined", i)
	}
	assert.False(t, math.IsNaN(rsi[14]))
}

func TestRSI_TooShortSeries(t *testing.T) {
	prices := []float64{100, 101, 102}

	rsi := RSI(prices, 14)

	// Fewer than period+1 observations: everything undefined, not an error.
	for i, v := range rsi {
		assert.True(t, math.IsNaN(v), "index %d", i)
	}
}

func TestRSI_FlatSeriesGuardsDivision(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 50
	}

	rsi := RSI(prices, 14)

	// Zero average loss is defined as 100, never Inf or NaN.
	assert.Equal(t, 100.0, rsi[len(rsi)-1])
	assert.False(t, math.IsInf(rsi[len(rsi)-1], 1))
}

func TestRSI_KnownValue(t *testing.T) {
	// Two gains of 2 and one loss of 1 over a 3-delta window:
	// RS = (4/3)/(1/3) = 4, RSI = 100 - 100/5 = 80.
	prices := []float64{100, 102, 101, 103}

	rsi := RSI(prices, 3)

	require.Len(t, rsi, 4)
	assert.InDelta(t, 80.0, rsi[3], 1e-9)
}

func TestLatestRSI(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	assert.Equal(t, 100.0, LatestRSI(RSI(prices, 14)))
	assert.True(t, math.IsNaN(LatestRSI(RSI(prices[:5], 14))))
}
