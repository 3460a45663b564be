package sentiment

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triadlabs/triad/internal/contracts"
)

func TestAnalyzerCompound(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name string
		text string
		sign int // -1, 0, 1
	}{
		{"positive headline", "Shares surge after record profit beats estimates", 1},
		{"negative headline", "Stock plunges on fraud investigation and layoffs", -1},
		{"neutral headline", "Company schedules annual shareholder meeting", 0},
		{"empty text", "", 0},
		{"negated positive", "Quarter was not profitable", -1},
		{"negated negative", "Analysts see no weakness in demand", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Compound(tt.text)
			assert.GreaterOrEqual(t, got, -1.0)
			assert.LessOrEqual(t, got, 1.0)
			switch tt.sign {
			case 1:
				assert.Greater(t, got, 0.0)
			case -1:
				assert.Less(t, got, 0.0)
			default:
				assert.Equal(t, 0.0, got)
			}
		})
	}
}

func TestAnalyzerDeterministic(t *testing.T) {
	a := NewAnalyzer()
	text := "Revenue growth beats expectations despite lawsuit concerns"
	first := a.Compound(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, a.Compound(text))
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0.5, LabelPositive},
		{0.051, LabelPositive},
		{0.05, LabelNeutral},
		{0, LabelNeutral},
		{-0.05, LabelNeutral},
		{-0.051, LabelNegative},
		{-0.5, LabelNegative},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.value), "value %v", tt.value)
	}
}

func TestSummarize(t *testing.T) {
	scored := map[string][]contracts.HeadlineScore{
		"AAPL": {
			{SnippetScore: 0.4},
			{SnippetScore: 0.2},
			{SnippetScore: -0.1},
		},
		"MSFT": {},
	}

	summaries := Summarize(scored)

	aapl := summaries["AAPL"]
	require.NotNil(t, aapl.Mean)
	require.NotNil(t, aapl.Median)
	assert.InDelta(t, 0.1666, *aapl.Mean, 1e-3)
	assert.InDelta(t, 0.2, *aapl.Median, 1e-9)
	assert.Equal(t, LabelPositive, aapl.MeanLabel)
	assert.Equal(t, LabelPositive, aapl.MedianLabel)

	msft := summaries["MSFT"]
	assert.Nil(t, msft.Mean)
	assert.Nil(t, msft.Median)
	assert.Equal(t, LabelNeutral, msft.MeanLabel)
	assert.Equal(t, LabelNeutral, msft.MedianLabel)
}

func TestMedianEvenCount(t *testing.T) {
	assert.InDelta(t, 0.15, median([]float64{0.1, 0.2, 0.3, 0.0}), 1e-9)
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()

	scored := map[string][]contracts.HeadlineScore{
		"NVDA": {{Headline: "NVDA soars", HeadlineScore: 0.6, SnippetScore: 0.5}},
	}
	summaries := Summarize(scored)

	require.NoError(t, WriteArtifacts(dir, scored, summaries))

	scoresPath := filepath.Join(dir, "NVDA_news_sentiment_scores.json")
	data, err := os.ReadFile(scoresPath)
	require.NoError(t, err)
	var back []contracts.HeadlineScore
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 1)
	assert.Equal(t, "NVDA soars", back[0].Headline)

	summaryPath := filepath.Join(dir, "NVDA_news_sentiment_summary.json")
	data, err = os.ReadFile(summaryPath)
	require.NoError(t, err)
	var summary contracts.SentimentSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, LabelPositive, summary.MedianLabel)
}
