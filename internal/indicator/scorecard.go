package indicator

import (
	"github.com/triadlabs/triad/internal/contracts"
)

// MissingPolicy controls how a metric scores when the source did not
// report a value.
type MissingPolicy int

const (
	// MissingScoresZero treats an absent value as the worst band.
	MissingScoresZero MissingPolicy = iota
	// MissingScoresMax treats an absent value as the best band. Used for
	// interest coverage, where no reported coverage means no debt burden.
	MissingScoresMax
)

// Direction states which side of a band limit is rewarded.
type Direction int

const (
	// LowerIsBetter scores the first band whose limit the value is below.
	LowerIsBetter Direction = iota
	// HigherIsBetter scores the first band whose limit the value is above.
	HigherIsBetter
)

// Band pairs a threshold with the sub-score awarded inside it.
type Band struct {
	Limit float64
	Score int
}

// Metric is one scorecard entry: a named fundamental metric with its band
// table and missing-value policy. Encoding the policy here keeps the
// per-metric asymmetry in data rather than scattered conditionals.
type Metric struct {
	Name      string
	Direction Direction
	Bands     []Band // best band first
	Missing   MissingPolicy
}

// Score awards the sub-score for a value; v == nil means the metric was
// not reported.
func (m Metric) Score(v *float64) int {
	if v == nil {
		if m.Missing == MissingScoresMax {
			return m.MaxScore()
		}
		return 0
	}

	for _, band := range m.Bands {
		switch m.Direction {
		case LowerIsBetter:
			if *v < band.Limit {
				return band.Score
			}
		case HigherIsBetter:
			if *v > band.Limit {
				return band.Score
			}
		}
	}

	return 0
}

// MaxScore returns the best band's score.
func (m Metric) MaxScore() int {
	max := 0
	for _, band := range m.Bands {
		if band.Score > max {
			max = band.Score
		}
	}
	return max
}

// Metric names, matching the fundamentals source field names.
const (
	MetricPriceToEarnings  = "price_to_earnings_ratio"
	MetricPEGRatio         = "peg_ratio"
	MetricROIC             = "return_on_invested_capital"
	MetricDebtToEquity     = "debt_to_equity"
	MetricInterestCoverage = "interest_coverage"
)

// DefaultMetrics is the quality scorecard used when no custom metric set
// is configured. Which metrics constitute "quality" is business policy;
// callers may supply their own table.
func DefaultMetrics() []Metric {
	return []Metric{
		{
			Name:      MetricPriceToEarnings,
			Direction: LowerIsBetter,
			Bands:     []Band{{Limit: 30, Score: 2}, {Limit: 50, Score: 1}},
			Missing:   MissingScoresZero,
		},
		{
			Name:      MetricPEGRatio,
			Direction: LowerIsBetter,
			Bands:     []Band{{Limit: 1, Score: 2}, {Limit: 2, Score: 1}},
			Missing:   MissingScoresZero,
		},
		{
			Name:      MetricROIC,
			Direction: HigherIsBetter,
			Bands:     []Band{{Limit: 0.15, Score: 2}, {Limit: 0.08, Score: 1}},
			Missing:   MissingScoresZero,
		},
		{
			Name:      MetricDebtToEquity,
			Direction: LowerIsBetter,
			Bands:     []Band{{Limit: 0.5, Score: 2}, {Limit: 1.5, Score: 1}},
			Missing:   MissingScoresZero,
		},
		{
			Name:      MetricInterestCoverage,
			Direction: HigherIsBetter,
			Bands:     []Band{{Limit: 10, Score: 2}, {Limit: 3, Score: 1}},
			Missing:   MissingScoresMax,
		},
	}
}

// MaxTotalScore sums the best band of every metric.
func MaxTotalScore(metrics []Metric) int {
	total := 0
	for _, m := range metrics {
		total += m.MaxScore()
	}
	return total
}

// BuildScoreCard scores one reporting period of fundamentals against a
// metric table. TotalScore is the unweighted sum of sub-scores.
func BuildScoreCard(record contracts.FinancialRecord, metrics []Metric) contracts.ScoreCard {
	card := contracts.ScoreCard{
		Ticker:       record.Ticker,
		FiscalPeriod: record.FiscalPeriod,
		SubScores:    make(map[string]int, len(metrics)),
	}

	for _, m := range metrics {
		score := m.Score(record.Metrics[m.Name])
		card.SubScores[m.Name] = score
		card.TotalScore += score
	}

	return card
}
