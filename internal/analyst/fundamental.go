package analyst

import (
	"context"
	"fmt"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/internal/indicator"
	"github.com/triadlabs/triad/internal/llm"
	"github.com/triadlabs/triad/pkg/logger"
)

// FinancialSource fetches financial metric records for a report window.
type FinancialSource interface {
	FetchFinancials(ctx context.Context, tickers []string, gte, lte time.Time, period string, limit int) ([]contracts.FinancialRecord, error)
}

// financialsWindowYears bounds how far back a fiscal report may date.
const financialsWindowYears = 2

const fundamentalSystemPrompt = `You are a fundamental analyst. For each ticker you
will receive a scorecard: sub-scores per financial metric and a total score
out of a stated maximum.

Apply this decision rule exactly:
- total score above 6: the fundamentals are strong, recommend "BUY".
- total score between 4 and 6 inclusive: recommend "HOLD".
- total score below 4: the fundamentals are weak, recommend "SELL".
- no scorecard available: recommend "HOLD" and say the data was missing.

Justify each decision in one sentence citing the total score.`

// FundamentalAnalyst recommends on a financial-metric scorecard.
type FundamentalAnalyst struct {
	financials       FinancialSource
	gen              llm.Generator
	metrics          []indicator.Metric
	logger           *logger.Logger
	reportingLagDays int
}

// NewFundamentalAnalyst creates the fundamentals task.
func NewFundamentalAnalyst(financials FinancialSource, gen llm.Generator, reportingLagDays int, log *logger.Logger) *FundamentalAnalyst {
	return &FundamentalAnalyst{
		financials:       financials,
		gen:              gen,
		metrics:          indicator.DefaultMetrics(),
		logger:           log,
		reportingLagDays: reportingLagDays,
	}
}

func (a *FundamentalAnalyst) Name() string { return "fundamental" }

type fundamentalEvidence struct {
	Ticker       string         `json:"ticker"`
	FiscalPeriod string         `json:"fiscal_period,omitempty"`
	SubScores    map[string]int `json:"sub_scores,omitempty"`
	TotalScore   *int           `json:"total_score"`
	MaxScore     int            `json:"max_score"`
}

// Recommend builds a scorecard from the latest fiscal report published at
// least reportingLagDays before the as-of date, so a run never sees a
// report the market had not received yet.
func (a *FundamentalAnalyst) Recommend(ctx context.Context, tickers []string, asOf time.Time) (*contracts.Recommendation, error) {
	lte := asOf.AddDate(0, 0, -a.reportingLagDays)
	gte := lte.AddDate(-financialsWindowYears, 0, 0)

	records, err := a.financials.FetchFinancials(ctx, tickers, gte, lte, "ttm", 1)
	if err != nil {
		return nil, fmt.Errorf("fundamental analyst: fetch financials: %w", err)
	}

	cards := make(map[string]contracts.ScoreCard, len(records))
	for _, record := range records {
		if _, seen := cards[record.Ticker]; seen {
			continue
		}
		cards[record.Ticker] = indicator.BuildScoreCard(record, a.metrics)
	}

	maxScore := indicator.MaxTotalScore(a.metrics)

	evidence := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		ev := fundamentalEvidence{Ticker: ticker, MaxScore: maxScore}
		if card, ok := cards[ticker]; ok {
			total := card.TotalScore
			ev.FiscalPeriod = card.FiscalPeriod
			ev.SubScores = card.SubScores
			ev.TotalScore = &total
		}

		a.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"score":  ev.TotalScore,
		}).Debug("fundamental evidence")

		msg, err := evidenceJSON(ev)
		if err != nil {
			return nil, fmt.Errorf("fundamental analyst: %w", err)
		}
		evidence = append(evidence, msg)
	}

	rec, err := a.gen.Generate(ctx, fundamentalSystemPrompt, evidence)
	if err != nil {
		return nil, fmt.Errorf("fundamental analyst: %w", err)
	}
	return validated(a.Name(), rec, tickers)
}
