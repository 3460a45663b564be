package sentiment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/triadlabs/triad/internal/contracts"
)

// Labels for bucketed sentiment values.
const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

// bucket threshold: values in [-0.05, 0.05] are neutral, the boundary
// included.
const neutralBand = 0.05

// Label buckets a compound value into positive, neutral, or negative.
func Label(v float64) string {
	switch {
	case v > neutralBand:
		return LabelPositive
	case v < -neutralBand:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// ScoreNews scores every headline and snippet for each ticker.
func ScoreNews(a *Analyzer, news map[string][]contracts.NewsItem) map[string][]contracts.HeadlineScore {
	scored := make(map[string][]contracts.HeadlineScore, len(news))
	for ticker, items := range news {
		scores := make([]contracts.HeadlineScore, 0, len(items))
		for _, item := range items {
			scores = append(scores, contracts.HeadlineScore{
				Headline:      item.Headline,
				Snippet:       item.Snippet,
				HeadlineScore: a.Compound(item.Headline),
				SnippetScore:  a.Compound(item.Snippet),
			})
		}
		scored[ticker] = scores
	}
	return scored
}

// Summarize reduces per-headline snippet scores to a mean and median per
// ticker. Tickers with no scored items get nil values and neutral labels.
func Summarize(scored map[string][]contracts.HeadlineScore) map[string]contracts.SentimentSummary {
	summaries := make(map[string]contracts.SentimentSummary, len(scored))
	for ticker, scores := range scored {
		values := make([]float64, 0, len(scores))
		for _, s := range scores {
			values = append(values, s.SnippetScore)
		}

		summary := contracts.SentimentSummary{
			MeanLabel:   LabelNeutral,
			MedianLabel: LabelNeutral,
		}
		if len(values) > 0 {
			m := mean(values)
			md := median(values)
			summary.Mean = &m
			summary.Median = &md
			summary.MeanLabel = Label(m)
			summary.MedianLabel = Label(md)
		}
		summaries[ticker] = summary
	}
	return summaries
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// WriteArtifacts persists the per-headline scores and per-ticker summaries
// as JSON files under dir, one pair per ticker.
func WriteArtifacts(dir string, scored map[string][]contracts.HeadlineScore, summaries map[string]contracts.SentimentSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sentiment output dir: %w", err)
	}

	for ticker, scores := range scored {
		if err := writeJSON(filepath.Join(dir, ticker+"_news_sentiment_scores.json"), scores); err != nil {
			return err
		}
	}
	for ticker, summary := range summaries {
		if err := writeJSON(filepath.Join(dir, ticker+"_news_sentiment_summary.json"), summary); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
