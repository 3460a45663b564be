package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/logger"
)

type stubEvaluator struct {
	result *contracts.BacktestResult
	err    error
	calls  int
}

func (s *stubEvaluator) Evaluate(_ context.Context, _ *contracts.Recommendation, _ []string, _ time.Time) (*contracts.BacktestResult, error) {
	s.calls++
	return s.result, s.err
}

type stubPersister struct {
	runID         int64
	runErr        error
	savedRuns     int
	savedBacktest int
}

func (s *stubPersister) SaveRun(context.Context, time.Time, []string, time.Duration, *contracts.Recommendation) (int64, error) {
	s.savedRuns++
	return s.runID, s.runErr
}

func (s *stubPersister) SaveBacktest(context.Context, int64, *contracts.BacktestResult) error {
	s.savedBacktest++
	return nil
}

func newService(t *testing.T, evaluator *stubEvaluator, persister Persister) *Service {
	t.Helper()
	o := newOrchestrator(t,
		&stubAnalyst{name: "valuation", decision: contracts.Buy},
		&stubAnalyst{name: "sentiment", decision: contracts.Buy},
		&stubAnalyst{name: "fundamental", decision: contracts.Buy},
	)
	svc := NewService(o, evaluator, nil, persister, "", 100, logger.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestServiceExecute(t *testing.T) {
	evaluator := &stubEvaluator{result: &contracts.BacktestResult{BuyForwardReturn: 0.1}}
	persister := &stubPersister{runID: 7}
	svc := newService(t, evaluator, persister)

	asOf := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.Execute(context.Background(), []string{"AAPL"}, asOf)
	require.NoError(t, err)

	require.NotNil(t, report.Run)
	require.NotNil(t, report.Backtest)
	assert.Empty(t, report.BacktestErr)
	assert.Equal(t, int64(7), report.RunID)
	assert.Equal(t, 1, evaluator.calls)
	assert.Equal(t, 1, persister.savedRuns)
	assert.Equal(t, 1, persister.savedBacktest)
}

func TestServiceRejectsRecentAsOf(t *testing.T) {
	evaluator := &stubEvaluator{}
	svc := newService(t, evaluator, nil)

	// only 30 days before the fixed clock
	asOf := time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.Execute(context.Background(), []string{"AAPL"}, asOf)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
	assert.Equal(t, 0, evaluator.calls, "pipeline must not run for an invalid date")
}

func TestServiceAgeBoundary(t *testing.T) {
	// the fixed clock is 2024-09-01; an exactly-100-day-old date is still
	// too recent, one day older passes
	evaluator := &stubEvaluator{result: &contracts.BacktestResult{}}
	svc := newService(t, evaluator, nil)

	exactly := time.Date(2024, 5, 24, 0, 0, 0, 0, time.UTC)
	_, err := svc.Execute(context.Background(), []string{"AAPL"}, exactly)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)

	older := exactly.AddDate(0, 0, -1)
	_, err = svc.Execute(context.Background(), []string{"AAPL"}, older)
	require.NoError(t, err)
}

func TestServiceBacktestFailureKeepsConsensus(t *testing.T) {
	evaluator := &stubEvaluator{err: errors.New("missing forward prices")}
	svc := newService(t, evaluator, nil)

	asOf := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.Execute(context.Background(), []string{"AAPL"}, asOf)
	require.NoError(t, err)

	require.NotNil(t, report.Run)
	assert.Nil(t, report.Backtest)
	assert.Contains(t, report.BacktestErr, "missing forward prices")
}

func TestServicePersistFailureIsNonFatal(t *testing.T) {
	evaluator := &stubEvaluator{result: &contracts.BacktestResult{}}
	persister := &stubPersister{runErr: errors.New("db down")}
	svc := newService(t, evaluator, persister)

	asOf := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	report, err := svc.Execute(context.Background(), []string{"AAPL"}, asOf)
	require.NoError(t, err)
	assert.Zero(t, report.RunID)
	assert.Equal(t, 0, persister.savedBacktest)
}
