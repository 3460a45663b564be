package contracts

import (
	"sort"
	"time"
)

// PriceBar is one daily close observation for a ticker.
type PriceBar struct {
	Ticker string    `json:"ticker"`
	Time   time.Time `json:"time"`
	Close  float64   `json:"close"`
}

// TickerSeries maps each ticker to its ordered close-price history,
// strictly increasing by timestamp with no duplicates. Created fresh per
// pipeline run and read-only to the core.
type TickerSeries map[string][]PriceBar

// BuildTickerSeries groups bars by ticker, sorts each series by time and
// drops duplicate timestamps (keeping the first occurrence).
func BuildTickerSeries(bars []PriceBar) TickerSeries {
	series := make(TickerSeries)
	for _, bar := range bars {
		series[bar.Ticker] = append(series[bar.Ticker], bar)
	}

	for ticker, s := range series {
		sort.Slice(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })

		deduped := s[:0]
		var last time.Time
		for i, bar := range s {
			if i > 0 && bar.Time.Equal(last) {
				continue
			}
			deduped = append(deduped, bar)
			last = bar.Time
		}
		series[ticker] = deduped
	}

	return series
}

// Closes extracts the close prices for one ticker in time order.
func (ts TickerSeries) Closes(ticker string) []float64 {
	bars := ts[ticker]
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes
}

// Tickers returns the tickers present in the series, sorted.
func (ts TickerSeries) Tickers() []string {
	tickers := make([]string, 0, len(ts))
	for t := range ts {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// FinancialRecord is one reporting period of fundamental metrics for a
// ticker, as returned by the fundamentals source. Metric values are keyed
// by name; a nil value means the source did not report the metric.
type FinancialRecord struct {
	Ticker       string              `json:"ticker"`
	FiscalPeriod string              `json:"fiscal_period"`
	ReportPeriod time.Time           `json:"report_period"`
	Period       string              `json:"period"` // e.g. "ttm"
	Metrics      map[string]*float64 `json:"metrics"`
}

// ScoreCard holds the band-scored fundamental metrics for one ticker at
// one reporting period. TotalScore is the unweighted sum of SubScores.
type ScoreCard struct {
	Ticker       string         `json:"ticker"`
	FiscalPeriod string         `json:"fiscal_period"`
	SubScores    map[string]int `json:"sub_scores"`
	TotalScore   int            `json:"total_score"`
}

// NewsItem is one headline/snippet pair for a ticker.
type NewsItem struct {
	Headline    string    `json:"headline"`
	Snippet     string    `json:"snippet"`
	PublishedAt time.Time `json:"published_at"`
}

// HeadlineScore pairs a news item with its lexicon sentiment scores
// (compound polarity in [-1, 1]).
type HeadlineScore struct {
	Headline      string  `json:"headline"`
	Snippet       string  `json:"snippet"`
	HeadlineScore float64 `json:"headline_score"`
	SnippetScore  float64 `json:"snippet_score"`
}

// SentimentSummary aggregates per-headline snippet scores for one ticker.
// Mean and Median are nil when the ticker had no scored headlines; the
// labels bucket at the ±0.05 compound thresholds.
type SentimentSummary struct {
	Mean        *float64 `json:"average_snippet_sentiment_value"`
	MeanLabel   string   `json:"average_snippet_sentiment"`
	Median      *float64 `json:"median_snippet_sentiment_value"`
	MedianLabel string   `json:"median_snippet_sentiment"`
}
