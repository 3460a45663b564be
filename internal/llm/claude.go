package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/config"
	"github.com/triadlabs/triad/pkg/logger"
)

// responseFormat is appended to every system prompt so the model answers
// with the parallel-array recommendation schema and nothing else.
const responseFormat = `

Respond with a single JSON object and no other text, in this exact shape:
{"tickers": ["..."], "recommendations": ["BUY|HOLD|SELL", "..."], "justifications": ["..."]}
The three arrays must have the same length, one entry per ticker.`

// ClaudeGenerator implements Generator using the Anthropic Messages API.
type ClaudeGenerator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	logger      *logger.Logger
}

// NewClaudeGenerator creates a Claude-backed Generator from config.
func NewClaudeGenerator(cfg *config.Config, log *logger.Logger) (*ClaudeGenerator, error) {
	if cfg.Anthropic.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the reasoning capability")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.Anthropic.APIKey),
		option.WithRequestTimeout(cfg.Anthropic.Timeout),
	)

	return &ClaudeGenerator{
		client:      client,
		model:       cfg.Anthropic.Model,
		maxTokens:   int64(cfg.Anthropic.MaxTokens),
		temperature: cfg.Anthropic.Temperature,
		logger:      log,
	}, nil
}

// Generate sends the system instructions plus evidence messages and
// parses the structured response. Malformed structured output is a
// SchemaViolation, surfaced as-is; it is never coerced.
func (g *ClaudeGenerator) Generate(ctx context.Context, system string, evidence []string) (*contracts.Recommendation, error) {
	if len(evidence) == 0 {
		return nil, fmt.Errorf("evidence messages cannot be empty")
	}

	messages := make([]anthropic.MessageParam, 0, len(evidence))
	for _, ev := range evidence {
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(ev)))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages:  messages,
		System: []anthropic.TextBlockParam{
			{Text: system + responseFormat},
		},
	}
	if g.temperature > 0 {
		params.Temperature = anthropic.Float(g.temperature)
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	text := textContent(resp)
	if text == "" {
		return nil, contracts.NewSchemaViolation("empty response from reasoning capability")
	}

	rec, err := ParseRecommendation(text)
	if err != nil {
		return nil, err
	}

	g.logger.WithFields(map[string]interface{}{
		"model":   g.model,
		"tickers": len(rec.Tickers),
	}).Debug("Reasoning capability answered")

	return rec, nil
}

// textContent concatenates the text blocks of a response, skipping any
// other block kind.
func textContent(resp *anthropic.Message) string {
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String()
}

// wireRecommendation is the JSON shape the model is asked to emit.
type wireRecommendation struct {
	Tickers         []string `json:"tickers"`
	Recommendations []string `json:"recommendations"`
	Justifications  []string `json:"justifications"`
}

// ParseRecommendation extracts and validates the structured response.
// Any shape breach — unparseable JSON, mismatched array lengths, a
// decision outside BUY/HOLD/SELL — is a SchemaViolation.
func ParseRecommendation(text string) (*contracts.Recommendation, error) {
	payload := extractJSON(text)
	if payload == "" {
		return nil, contracts.NewSchemaViolation("no JSON object found in response")
	}

	var wire wireRecommendation
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, contracts.NewSchemaViolation("unparseable response: %v", err)
	}

	if len(wire.Tickers) != len(wire.Recommendations) || len(wire.Tickers) != len(wire.Justifications) {
		return nil, contracts.NewSchemaViolation(
			"parallel arrays differ in length: tickers=%d recommendations=%d justifications=%d",
			len(wire.Tickers), len(wire.Recommendations), len(wire.Justifications))
	}

	if len(wire.Tickers) == 0 {
		return nil, contracts.NewSchemaViolation("response covers no tickers")
	}

	var rec contracts.Recommendation
	for i, ticker := range wire.Tickers {
		decision, err := contracts.ParseDecision(wire.Recommendations[i])
		if err != nil {
			return nil, err
		}
		rec.Append(ticker, decision, wire.Justifications[i])
	}

	return &rec, nil
}

// extractJSON pulls the outermost JSON object out of the response text,
// tolerating code fences and surrounding prose.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
