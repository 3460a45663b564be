package consensus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/logger"
)

// countingGenerator tallies calls and answers with a fixed decision for
// whatever single ticker the evidence names.
type countingGenerator struct {
	calls    int
	decision contracts.Decision
	ticker   string
	err      error
}

func (g *countingGenerator) Generate(_ context.Context, _ string, _ []string) (*contracts.Recommendation, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	rec := &contracts.Recommendation{}
	rec.Append(g.ticker, g.decision, "judgment call")
	return rec, nil
}

func opinionsFor(ticker string, decisions [3]contracts.Decision) []Opinion {
	names := [3]string{"valuation", "sentiment", "fundamental"}
	opinions := make([]Opinion, 0, 3)
	for i, d := range decisions {
		rec := &contracts.Recommendation{}
		rec.Append(ticker, d, "because")
		opinions = append(opinions, Opinion{Analyst: names[i], Recommendation: rec})
	}
	return opinions
}

func TestResolveDeterministicTallies(t *testing.T) {
	tests := []struct {
		name  string
		votes [3]contracts.Decision
		want  contracts.Decision
	}{
		{"three buys", [3]contracts.Decision{contracts.Buy, contracts.Buy, contracts.Buy}, contracts.Buy},
		{"three sells", [3]contracts.Decision{contracts.Sell, contracts.Sell, contracts.Sell}, contracts.Sell},
		{"three holds", [3]contracts.Decision{contracts.Hold, contracts.Hold, contracts.Hold}, contracts.Hold},
		{"two buys one sell", [3]contracts.Decision{contracts.Buy, contracts.Sell, contracts.Buy}, contracts.Hold},
		{"two sells one buy", [3]contracts.Decision{contracts.Sell, contracts.Buy, contracts.Sell}, contracts.Hold},
		{"two holds one buy", [3]contracts.Decision{contracts.Hold, contracts.Buy, contracts.Hold}, contracts.Hold},
		{"two holds one sell", [3]contracts.Decision{contracts.Hold, contracts.Sell, contracts.Hold}, contracts.Hold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &countingGenerator{ticker: "AAPL"}
			c := NewCoordinator(gen, logger.NewNop())

			rec, err := c.Resolve(context.Background(), []string{"AAPL"}, opinionsFor("AAPL", tt.votes))
			require.NoError(t, err)

			got, ok := rec.DecisionFor("AAPL")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 0, gen.calls, "deterministic tally must not call the generator")
		})
	}
}

func TestResolveEscalatesTwoBuysOneHold(t *testing.T) {
	gen := &countingGenerator{ticker: "AAPL", decision: contracts.Buy}
	c := NewCoordinator(gen, logger.NewNop())

	rec, err := c.Resolve(context.Background(), []string{"AAPL"},
		opinionsFor("AAPL", [3]contracts.Decision{contracts.Buy, contracts.Hold, contracts.Buy}))
	require.NoError(t, err)

	got, _ := rec.DecisionFor("AAPL")
	assert.Equal(t, contracts.Buy, got)
	assert.Equal(t, 1, gen.calls)
}

func TestResolveEscalatesTwoSellsOneHold(t *testing.T) {
	gen := &countingGenerator{ticker: "AAPL", decision: contracts.Hold}
	c := NewCoordinator(gen, logger.NewNop())

	rec, err := c.Resolve(context.Background(), []string{"AAPL"},
		opinionsFor("AAPL", [3]contracts.Decision{contracts.Sell, contracts.Hold, contracts.Sell}))
	require.NoError(t, err)

	got, _ := rec.DecisionFor("AAPL")
	assert.Equal(t, contracts.Hold, got)
	assert.Equal(t, 1, gen.calls)
}

func TestResolveRejectsJudgmentOutsideBounds(t *testing.T) {
	// two SELLs plus a HOLD can only resolve to SELL or HOLD
	gen := &countingGenerator{ticker: "AAPL", decision: contracts.Buy}
	c := NewCoordinator(gen, logger.NewNop())

	_, err := c.Resolve(context.Background(), []string{"AAPL"},
		opinionsFor("AAPL", [3]contracts.Decision{contracts.Sell, contracts.Hold, contracts.Sell}))
	require.Error(t, err)
	assert.True(t, contracts.IsSchemaViolation(err))
}

func TestResolveRejectsSplitTally(t *testing.T) {
	gen := &countingGenerator{ticker: "AAPL"}
	c := NewCoordinator(gen, logger.NewNop())

	_, err := c.Resolve(context.Background(), []string{"AAPL"},
		opinionsFor("AAPL", [3]contracts.Decision{contracts.Buy, contracts.Hold, contracts.Sell}))
	require.Error(t, err)
	assert.True(t, contracts.IsSchemaViolation(err))
	assert.Equal(t, 0, gen.calls)
}

func TestResolveJudgmentError(t *testing.T) {
	gen := &countingGenerator{ticker: "AAPL", err: errors.New("api down")}
	c := NewCoordinator(gen, logger.NewNop())

	_, err := c.Resolve(context.Background(), []string{"AAPL"},
		opinionsFor("AAPL", [3]contracts.Decision{contracts.Buy, contracts.Hold, contracts.Buy}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "judgment")
}

func TestResolveRejectsWrongOpinionCount(t *testing.T) {
	c := NewCoordinator(&countingGenerator{}, logger.NewNop())

	_, err := c.Resolve(context.Background(), []string{"AAPL"},
		opinionsFor("AAPL", [3]contracts.Decision{contracts.Buy, contracts.Buy, contracts.Buy})[:2])
	require.Error(t, err)
	assert.True(t, contracts.IsSchemaViolation(err))
}

func TestResolveRejectsIncompleteOpinion(t *testing.T) {
	opinions := opinionsFor("AAPL", [3]contracts.Decision{contracts.Buy, contracts.Buy, contracts.Buy})
	// second analyst answered for a different universe
	other := &contracts.Recommendation{}
	other.Append("MSFT", contracts.Buy, "because")
	opinions[1].Recommendation = other

	c := NewCoordinator(&countingGenerator{}, logger.NewNop())
	_, err := c.Resolve(context.Background(), []string{"AAPL"}, opinions)
	require.Error(t, err)
	assert.True(t, contracts.IsSchemaViolation(err))
}

func TestResolveMixedUniverse(t *testing.T) {
	// AAPL unanimous buy, MSFT escalates, generator holds
	tickers := []string{"AAPL", "MSFT"}
	names := [3]string{"valuation", "sentiment", "fundamental"}
	votes := map[string][3]contracts.Decision{
		"AAPL": {contracts.Buy, contracts.Buy, contracts.Buy},
		"MSFT": {contracts.Buy, contracts.Hold, contracts.Buy},
	}

	opinions := make([]Opinion, 0, 3)
	for i := 0; i < 3; i++ {
		rec := &contracts.Recommendation{}
		for _, ticker := range tickers {
			rec.Append(ticker, votes[ticker][i], "because")
		}
		opinions = append(opinions, Opinion{Analyst: names[i], Recommendation: rec})
	}

	gen := &countingGenerator{ticker: "MSFT", decision: contracts.Hold}
	c := NewCoordinator(gen, logger.NewNop())

	rec, err := c.Resolve(context.Background(), tickers, opinions)
	require.NoError(t, err)

	aapl, _ := rec.DecisionFor("AAPL")
	msft, _ := rec.DecisionFor("MSFT")
	assert.Equal(t, contracts.Buy, aapl)
	assert.Equal(t, contracts.Hold, msft)
	assert.Equal(t, 1, gen.calls)
}
