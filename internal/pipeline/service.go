package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/logger"
)

// Evaluator runs the forward test for a finished consensus.
type Evaluator interface {
	Evaluate(ctx context.Context, rec *contracts.Recommendation, tickers []string, asOf time.Time) (*contracts.BacktestResult, error)
}

// Renderer writes the backtest comparison chart.
type Renderer func(path string, result *contracts.BacktestResult) error

// Persister saves runs and backtests. It is optional; a nil Persister
// disables persistence.
type Persister interface {
	SaveRun(ctx context.Context, asOf time.Time, tickers []string, elapsed time.Duration, rec *contracts.Recommendation) (int64, error)
	SaveBacktest(ctx context.Context, runID int64, result *contracts.BacktestResult) error
}

// Report is the full outcome of one end-to-end run. A consensus with a
// failed backtest is still a valid report: BacktestErr carries the failure
// and Backtest stays nil.
type Report struct {
	Run         *Result                   `json:"run"`
	Backtest    *contracts.BacktestResult `json:"backtest,omitempty"`
	BacktestErr string                    `json:"backtest_error,omitempty"`
	ChartPath   string                    `json:"chart_path,omitempty"`
	RunID       int64                     `json:"run_id,omitempty"`
}

// Service ties the orchestrator, backtest, persistence, and chart output
// into the single entry point the CLI and HTTP API share.
type Service struct {
	orchestrator *Orchestrator
	evaluator    Evaluator
	renderer     Renderer
	persister    Persister
	logger       *logger.Logger
	outputDir    string
	minAgeDays   int
	now          func() time.Time
}

// NewService builds the run entry point. persister may be nil; outputDir
// empty disables the chart.
func NewService(orchestrator *Orchestrator, evaluator Evaluator, renderer Renderer, persister Persister, outputDir string, minAgeDays int, log *logger.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		evaluator:    evaluator,
		renderer:     renderer,
		persister:    persister,
		logger:       log,
		outputDir:    outputDir,
		minAgeDays:   minAgeDays,
		now:          time.Now,
	}
}

// Execute runs the pipeline for the universe at the as-of date, then the
// forward test. The as-of date must be strictly more than minAgeDays old
// so the forward window has real price history behind it.
func (s *Service) Execute(ctx context.Context, tickers []string, asOf time.Time) (*Report, error) {
	if age := s.now().Sub(asOf); age <= time.Duration(s.minAgeDays)*24*time.Hour {
		return nil, fmt.Errorf("%w: as-of date %s must be more than %d days in the past",
			contracts.ErrInvalidInput, asOf.Format("2006-01-02"), s.minAgeDays)
	}

	result, err := s.orchestrator.Run(ctx, tickers, asOf)
	if err != nil {
		return nil, err
	}

	report := &Report{Run: result}

	if s.persister != nil {
		runID, err := s.persister.SaveRun(ctx, asOf, tickers, result.Elapsed, result.Consensus)
		if err != nil {
			s.logger.WithError(err).Warn("failed to persist run")
		} else {
			report.RunID = runID
		}
	}

	// a backtest failure never invalidates the consensus
	backtest, err := s.evaluator.Evaluate(ctx, result.Consensus, tickers, asOf)
	if err != nil {
		s.logger.WithError(err).Warn("backtest failed")
		report.BacktestErr = err.Error()
		return report, nil
	}
	report.Backtest = backtest

	if s.persister != nil && report.RunID != 0 {
		if err := s.persister.SaveBacktest(ctx, report.RunID, backtest); err != nil {
			s.logger.WithError(err).Warn("failed to persist backtest")
		}
	}

	if s.renderer != nil && s.outputDir != "" {
		path := filepath.Join(s.outputDir, fmt.Sprintf("backtest_%s.png", asOf.Format("2006-01-02")))
		if err := s.renderer(path, backtest); err != nil {
			s.logger.WithError(err).Warn("failed to render backtest chart")
		} else {
			report.ChartPath = path
		}
	}

	return report, nil
}
