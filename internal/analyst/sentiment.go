package analyst

import (
	"context"
	"fmt"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/internal/llm"
	"github.com/triadlabs/triad/internal/sentiment"
	"github.com/triadlabs/triad/pkg/logger"
)

// NewsSource fetches news items per ticker for a date window.
type NewsSource interface {
	FetchNews(ctx context.Context, tickers []string, start, end time.Time) (map[string][]contracts.NewsItem, error)
}

// newsLookbackDays bounds how far back headlines are considered relevant.
const newsLookbackDays = 30

const sentimentSystemPrompt = `You are a news sentiment analyst. For each ticker you
will receive the median polarity of its recent headline snippets, already
bucketed into a label.

Apply this decision rule exactly:
- label "positive": recommend "BUY".
- label "neutral": recommend "HOLD".
- label "negative": recommend "SELL".

Justify each decision in one sentence citing the sentiment label and value.`

// SentimentAnalyst recommends on recent news polarity.
type SentimentAnalyst struct {
	news      NewsSource
	gen       llm.Generator
	analyzer  *sentiment.Analyzer
	logger    *logger.Logger
	outputDir string
}

// NewSentimentAnalyst creates the news sentiment task. When outputDir is
// non-empty, per-headline scores and summaries are written there as JSON.
func NewSentimentAnalyst(news NewsSource, gen llm.Generator, outputDir string, log *logger.Logger) *SentimentAnalyst {
	return &SentimentAnalyst{
		news:      news,
		gen:       gen,
		analyzer:  sentiment.NewAnalyzer(),
		logger:    log,
		outputDir: outputDir,
	}
}

func (a *SentimentAnalyst) Name() string { return "sentiment" }

type sentimentEvidence struct {
	Ticker    string                     `json:"ticker"`
	Headlines int                        `json:"headline_count"`
	Summary   contracts.SentimentSummary `json:"sentiment_summary"`
}

// Recommend scores headlines published in the 30 days ending at the as-of
// date and asks the generator to apply the polarity-label rule.
func (a *SentimentAnalyst) Recommend(ctx context.Context, tickers []string, asOf time.Time) (*contracts.Recommendation, error) {
	start := asOf.AddDate(0, 0, -newsLookbackDays)

	news, err := a.news.FetchNews(ctx, tickers, start, asOf)
	if err != nil {
		return nil, fmt.Errorf("sentiment analyst: fetch news: %w", err)
	}

	scored := sentiment.ScoreNews(a.analyzer, news)
	summaries := sentiment.Summarize(scored)

	if a.outputDir != "" {
		if err := sentiment.WriteArtifacts(a.outputDir, scored, summaries); err != nil {
			a.logger.WithError(err).Warn("failed to write sentiment artifacts")
		}
	}

	evidence := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		summary, ok := summaries[ticker]
		if !ok {
			summary = contracts.SentimentSummary{
				MeanLabel:   sentiment.LabelNeutral,
				MedianLabel: sentiment.LabelNeutral,
			}
		}

		a.logger.WithFields(map[string]interface{}{
			"ticker":    ticker,
			"headlines": len(scored[ticker]),
			"label":     summary.MedianLabel,
		}).Debug("sentiment evidence")

		msg, err := evidenceJSON(sentimentEvidence{
			Ticker:    ticker,
			Headlines: len(scored[ticker]),
			Summary:   summary,
		})
		if err != nil {
			return nil, fmt.Errorf("sentiment analyst: %w", err)
		}
		evidence = append(evidence, msg)
	}

	rec, err := a.gen.Generate(ctx, sentimentSystemPrompt, evidence)
	if err != nil {
		return nil, fmt.Errorf("sentiment analyst: %w", err)
	}
	return validated(a.Name(), rec, tickers)
}
