package analyst

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/internal/indicator"
	"github.com/triadlabs/triad/internal/llm"
	"github.com/triadlabs/triad/pkg/logger"
)

// PriceSource fetches daily close prices for a date window.
type PriceSource interface {
	FetchPrices(ctx context.Context, tickers []string, start, end time.Time) ([]contracts.PriceBar, error)
}

const valuationSystemPrompt = `You are a valuation analyst. For each ticker you will
receive its latest 14-day RSI value computed from daily closes.

Apply this decision rule exactly:
- RSI below 30: the stock is oversold, recommend "BUY".
- RSI between 30 and 70 inclusive: recommend "HOLD".
- RSI above 70: the stock is overbought, recommend "SELL".
- RSI unavailable (null): recommend "HOLD" and say the data was insufficient.

Justify each decision in one sentence citing the RSI value.`

// ValuationAnalyst recommends on price momentum via RSI.
type ValuationAnalyst struct {
	prices       PriceSource
	gen          llm.Generator
	logger       *logger.Logger
	rsiPeriod    int
	lookbackDays int
}

// NewValuationAnalyst creates the valuation task.
func NewValuationAnalyst(prices PriceSource, gen llm.Generator, rsiPeriod, lookbackDays int, log *logger.Logger) *ValuationAnalyst {
	return &ValuationAnalyst{
		prices:       prices,
		gen:          gen,
		logger:       log,
		rsiPeriod:    rsiPeriod,
		lookbackDays: lookbackDays,
	}
}

func (a *ValuationAnalyst) Name() string { return "valuation" }

type valuationEvidence struct {
	Ticker    string   `json:"ticker"`
	RSIPeriod int      `json:"rsi_period"`
	RSI       *float64 `json:"rsi"`
	Closes    int      `json:"observations"`
}

// Recommend fetches prices up to the as-of date, computes the latest RSI
// per ticker, and asks the generator to apply the oversold/overbought rule.
func (a *ValuationAnalyst) Recommend(ctx context.Context, tickers []string, asOf time.Time) (*contracts.Recommendation, error) {
	start := asOf.AddDate(0, 0, -a.lookbackDays)

	bars, err := a.prices.FetchPrices(ctx, tickers, start, asOf)
	if err != nil {
		return nil, fmt.Errorf("valuation analyst: fetch prices: %w", err)
	}

	series := contracts.BuildTickerSeries(bars)

	evidence := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		closes := series.Closes(ticker)

		ev := valuationEvidence{
			Ticker:    ticker,
			RSIPeriod: a.rsiPeriod,
			Closes:    len(closes),
		}
		if latest := indicator.LatestRSI(indicator.RSI(closes, a.rsiPeriod)); !math.IsNaN(latest) {
			ev.RSI = &latest
		}

		a.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"rsi":    ev.RSI,
		}).Debug("valuation evidence")

		msg, err := evidenceJSON(ev)
		if err != nil {
			return nil, fmt.Errorf("valuation analyst: %w", err)
		}
		evidence = append(evidence, msg)
	}

	rec, err := a.gen.Generate(ctx, valuationSystemPrompt, evidence)
	if err != nil {
		return nil, fmt.Errorf("valuation analyst: %w", err)
	}
	return validated(a.Name(), rec, tickers)
}
