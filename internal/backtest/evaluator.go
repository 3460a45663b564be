// Package backtest measures how a consensus recommendation would have
// performed over the forward window after its as-of date. The BUY bucket
// becomes an equal-weight portfolio compared against an equal-weight
// benchmark of the full universe.
package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/logger"
)

// PriceSource fetches daily close prices for a date window.
type PriceSource interface {
	FetchPrices(ctx context.Context, tickers []string, start, end time.Time) ([]contracts.PriceBar, error)
}

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// Evaluator computes forward returns and Sharpe ratios.
type Evaluator struct {
	prices        PriceSource
	logger        *logger.Logger
	forwardMonths int
	riskFreeRate  float64
}

// NewEvaluator creates a backtest evaluator. riskFreeRate is annual.
func NewEvaluator(prices PriceSource, forwardMonths int, riskFreeRate float64, log *logger.Logger) *Evaluator {
	return &Evaluator{
		prices:        prices,
		logger:        log,
		forwardMonths: forwardMonths,
		riskFreeRate:  riskFreeRate,
	}
}

// Evaluate runs the forward test for a finished consensus. The price window
// starts at the as-of date, so the test only sees data the recommendation
// could not have seen.
func (e *Evaluator) Evaluate(ctx context.Context, rec *contracts.Recommendation, tickers []string, asOf time.Time) (*contracts.BacktestResult, error) {
	windowEnd := asOf.AddDate(0, e.forwardMonths, 0)

	bars, err := e.prices.FetchPrices(ctx, tickers, asOf, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("backtest: fetch forward prices: %w", err)
	}
	series := contracts.BuildTickerSeries(bars)

	var buyTickers []string
	for _, ticker := range tickers {
		if decision, ok := rec.DecisionFor(ticker); ok && decision == contracts.Buy {
			buyTickers = append(buyTickers, ticker)
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"buy_tickers": buyTickers,
		"window_end":  windowEnd.Format("2006-01-02"),
	}).Info("running forward test")

	result := &contracts.BacktestResult{
		AsOf:       asOf,
		WindowEnd:  windowEnd,
		BuyTickers: buyTickers,
	}

	benchReturn, err := meanForwardReturn(series, tickers)
	if err != nil {
		return nil, fmt.Errorf("backtest: benchmark: %w", err)
	}
	result.BenchmarkForwardReturn = benchReturn
	result.BenchmarkDailyReturns = portfolioDailyReturns(series, tickers)
	result.BenchmarkSharpe = e.sharpe(result.BenchmarkDailyReturns)

	if len(buyTickers) > 0 {
		buyReturn, err := meanForwardReturn(series, buyTickers)
		if err != nil {
			return nil, fmt.Errorf("backtest: buy portfolio: %w", err)
		}
		result.BuyForwardReturn = buyReturn
		result.BuyDailyReturns = portfolioDailyReturns(series, buyTickers)
		result.BuySharpe = e.sharpe(result.BuyDailyReturns)
	}

	return result, nil
}

// meanForwardReturn averages the simple last-over-first return of each
// ticker. A ticker with fewer than two observations makes the window
// unusable.
func meanForwardReturn(series contracts.TickerSeries, tickers []string) (float64, error) {
	var sum float64
	for _, ticker := range tickers {
		closes := series.Closes(ticker)
		if len(closes) < 2 {
			return 0, fmt.Errorf("%w: %s has %d forward observations", contracts.ErrDataUnavailable, ticker, len(closes))
		}
		sum += closes[len(closes)-1]/closes[0] - 1
	}
	return sum / float64(len(tickers)), nil
}

// portfolioDailyReturns builds the equal-weight daily return series. Each
// ticker's first observation contributes a zero return, and per date the
// portfolio return is the mean over the tickers trading that day.
func portfolioDailyReturns(series contracts.TickerSeries, tickers []string) []contracts.DailyReturn {
	byDate := make(map[time.Time][]float64)
	for _, ticker := range tickers {
		bars := series[ticker]
		for i, bar := range bars {
			date := bar.Time.Truncate(24 * time.Hour)
			r := 0.0
			if i > 0 && bars[i-1].Close != 0 {
				r = bar.Close/bars[i-1].Close - 1
			}
			byDate[date] = append(byDate[date], r)
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	daily := make([]contracts.DailyReturn, 0, len(dates))
	for _, date := range dates {
		var sum float64
		for _, r := range byDate[date] {
			sum += r
		}
		daily = append(daily, contracts.DailyReturn{
			Date:   date,
			Return: sum / float64(len(byDate[date])),
		})
	}
	return daily
}

// sharpe annualizes the mean excess daily return over its sample standard
// deviation. The annual risk-free rate is converted to a daily rate by
// compounding, not division.
func (e *Evaluator) sharpe(daily []contracts.DailyReturn) float64 {
	if len(daily) < 2 {
		return 0
	}

	rfDaily := math.Pow(1+e.riskFreeRate, 1.0/tradingDaysPerYear) - 1

	excess := make([]float64, len(daily))
	var sum float64
	for i, d := range daily {
		excess[i] = d.Return - rfDaily
		sum += excess[i]
	}
	mean := sum / float64(len(excess))

	var ss float64
	for _, v := range excess {
		ss += (v - mean) * (v - mean)
	}
	std := math.Sqrt(ss / float64(len(excess)-1))
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(tradingDaysPerYear)
}
