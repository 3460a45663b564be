// Package pipeline fans the ticker universe out to the analysts, waits for
// all three opinions, and hands them to the coordinator. The run is
// all-or-nothing: any analyst failure aborts the whole run before the
// coordinator ever sees a partial set.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/triadlabs/triad/internal/analyst"
	"github.com/triadlabs/triad/internal/consensus"
	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/pkg/logger"
)

// Result is one completed consensus run.
type Result struct {
	AsOf      time.Time                 `json:"as_of"`
	Tickers   []string                  `json:"tickers"`
	Opinions  []consensus.Opinion       `json:"opinions"`
	Consensus *contracts.Recommendation `json:"consensus"`
	Elapsed   time.Duration             `json:"elapsed_ns"`
}

// Orchestrator runs the analysts concurrently and resolves their votes.
type Orchestrator struct {
	analysts    []analyst.Analyst
	coordinator *consensus.Coordinator
	logger      *logger.Logger
}

// NewOrchestrator wires the analysts to the coordinator.
func NewOrchestrator(analysts []analyst.Analyst, coordinator *consensus.Coordinator, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		analysts:    analysts,
		coordinator: coordinator,
		logger:      log,
	}
}

// Run executes one consensus run for the universe at the as-of date.
func (o *Orchestrator) Run(ctx context.Context, tickers []string, asOf time.Time) (*Result, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: empty ticker universe", contracts.ErrInvalidInput)
	}

	started := time.Now()
	o.logger.WithFields(map[string]interface{}{
		"tickers":  tickers,
		"as_of":    asOf.Format("2006-01-02"),
		"analysts": len(o.analysts),
	}).Info("starting consensus run")

	opinions, err := o.gatherOpinions(ctx, tickers, asOf)
	if err != nil {
		return nil, err
	}

	final, err := o.coordinator.Resolve(ctx, tickers, opinions)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	elapsed := time.Since(started)
	o.logger.WithField("elapsed", elapsed.String()).Info("consensus run complete")

	return &Result{
		AsOf:      asOf,
		Tickers:   tickers,
		Opinions:  opinions,
		Consensus: final,
		Elapsed:   elapsed,
	}, nil
}

// gatherOpinions runs every analyst in its own goroutine. The first failure
// cancels the remaining analysts and is returned in analyst order so reruns
// report the same error.
func (o *Orchestrator) gatherOpinions(ctx context.Context, tickers []string, asOf time.Time) ([]consensus.Opinion, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opinions := make([]consensus.Opinion, len(o.analysts))
	errs := make([]error, len(o.analysts))

	var wg sync.WaitGroup
	for i, a := range o.analysts {
		wg.Add(1)
		go func(i int, a analyst.Analyst) {
			defer wg.Done()

			rec, err := a.Recommend(ctx, tickers, asOf)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			opinions[i] = consensus.Opinion{Analyst: a.Name(), Recommendation: rec}
			o.logger.WithField("analyst", a.Name()).Info("opinion received")
		}(i, a)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("analyst %s: %w", o.analysts[i].Name(), err)
		}
	}
	return opinions, nil
}
