package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triadlabs/triad/internal/analyst"
	"github.com/triadlabs/triad/internal/consensus"
	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/logger"
)

// stubAnalyst answers a fixed decision for every ticker.
type stubAnalyst struct {
	name     string
	decision contracts.Decision
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (s *stubAnalyst) Name() string { return s.name }

func (s *stubAnalyst) Recommend(ctx context.Context, tickers []string, _ time.Time) (*contracts.Recommendation, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	rec := &contracts.Recommendation{}
	for _, t := range tickers {
		rec.Append(t, s.decision, "stub opinion")
	}
	return rec, nil
}

// unusedGenerator fails the test if the coordinator escalates.
type unusedGenerator struct{ t *testing.T }

func (g unusedGenerator) Generate(context.Context, string, []string) (*contracts.Recommendation, error) {
	g.t.Fatal("generator must not be called")
	return nil, nil
}

func newOrchestrator(t *testing.T, analysts ...analyst.Analyst) *Orchestrator {
	t.Helper()
	coord := consensus.NewCoordinator(unusedGenerator{t: t}, logger.NewNop())
	return NewOrchestrator(analysts, coord, logger.NewNop())
}

func TestRunUnanimousConsensus(t *testing.T) {
	o := newOrchestrator(t,
		&stubAnalyst{name: "valuation", decision: contracts.Buy},
		&stubAnalyst{name: "sentiment", decision: contracts.Buy},
		&stubAnalyst{name: "fundamental", decision: contracts.Buy},
	)

	asOf := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	result, err := o.Run(context.Background(), []string{"AAPL", "MSFT"}, asOf)
	require.NoError(t, err)

	require.Len(t, result.Opinions, 3)
	assert.Equal(t, 2, result.Consensus.Len())
	for _, ticker := range []string{"AAPL", "MSFT"} {
		got, ok := result.Consensus.DecisionFor(ticker)
		require.True(t, ok)
		assert.Equal(t, contracts.Buy, got)
	}
	assert.True(t, result.AsOf.Equal(asOf))
}

func TestRunOpinionOrderIsStable(t *testing.T) {
	// the slow analyst finishes last but keeps its slot
	o := newOrchestrator(t,
		&stubAnalyst{name: "valuation", decision: contracts.Hold, delay: 30 * time.Millisecond},
		&stubAnalyst{name: "sentiment", decision: contracts.Hold},
		&stubAnalyst{name: "fundamental", decision: contracts.Hold},
	)

	result, err := o.Run(context.Background(), []string{"AAPL"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "valuation", result.Opinions[0].Analyst)
	assert.Equal(t, "sentiment", result.Opinions[1].Analyst)
	assert.Equal(t, "fundamental", result.Opinions[2].Analyst)
}

func TestRunAbortsOnAnalystFailure(t *testing.T) {
	failing := &stubAnalyst{name: "sentiment", err: errors.New("news feed down")}
	slow := &stubAnalyst{name: "fundamental", decision: contracts.Hold, delay: 5 * time.Second}

	o := newOrchestrator(t,
		&stubAnalyst{name: "valuation", decision: contracts.Hold},
		failing,
		slow,
	)

	started := time.Now()
	_, err := o.Run(context.Background(), []string{"AAPL"}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyst sentiment")
	assert.Contains(t, err.Error(), "news feed down")

	// the failure cancelled the slow analyst instead of waiting it out
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestRunAllAnalystsCalledOnce(t *testing.T) {
	analysts := []*stubAnalyst{
		{name: "valuation", decision: contracts.Hold},
		{name: "sentiment", decision: contracts.Hold},
		{name: "fundamental", decision: contracts.Hold},
	}
	o := newOrchestrator(t, analysts[0], analysts[1], analysts[2])

	_, err := o.Run(context.Background(), []string{"AAPL"}, time.Now())
	require.NoError(t, err)
	for _, a := range analysts {
		assert.Equal(t, int32(1), a.calls.Load(), a.name)
	}
}

func TestRunEmptyUniverse(t *testing.T) {
	o := newOrchestrator(t, &stubAnalyst{name: "valuation", decision: contracts.Hold})

	_, err := o.Run(context.Background(), nil, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
}
