package contracts

import "time"

// DailyReturn is one day of an equal-weighted portfolio return series.
type DailyReturn struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// BacktestResult holds the forward-looking evaluation of one consensus
// recommendation set: realized 3-month returns and annualized Sharpe
// ratios for the BUY portfolio versus the equal-weighted benchmark, plus
// the daily series cumulative performance is derived from.
type BacktestResult struct {
	AsOf       time.Time `json:"as_of"`
	WindowEnd  time.Time `json:"window_end"`
	BuyTickers []string  `json:"buy_tickers"`

	BuyForwardReturn       float64 `json:"buy_forward_return"`
	BenchmarkForwardReturn float64 `json:"benchmark_forward_return"`

	BuySharpe       float64 `json:"buy_sharpe"`
	BenchmarkSharpe float64 `json:"benchmark_sharpe"`

	BuyDailyReturns       []DailyReturn `json:"buy_daily_returns"`
	BenchmarkDailyReturns []DailyReturn `json:"benchmark_daily_returns"`
}

// CumulativeReturns derives the compounding cumulative-return series from
// a daily return series: cum[i] = prod(1+r[0..i]) - 1. It is recomputable
// from the stored dailies; nothing persists running state.
func CumulativeReturns(daily []DailyReturn) []DailyReturn {
	cumulative := make([]DailyReturn, len(daily))
	acc := 1.0
	for i, d := range daily {
		acc *= 1 + d.Return
		cumulative[i] = DailyReturn{Date: d.Date, Return: acc - 1}
	}
	return cumulative
}
