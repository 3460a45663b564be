// Package analyst implements the three independent recommendation tasks:
// valuation, news sentiment, and fundamentals. Each task gathers its own
// evidence for an as-of date, never reading data past that date, and asks
// the generator for a per-ticker recommendation constrained by the task's
// decision rule.
package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/triadlabs/triad/internal/contracts"
)

// Analyst is one independent opinion source over a ticker universe.
type Analyst interface {
	Name() string
	Recommend(ctx context.Context, tickers []string, asOf time.Time) (*contracts.Recommendation, error)
}

// evidenceJSON marshals one per-ticker evidence record for the generator.
func evidenceJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal evidence: %w", err)
	}
	return string(data), nil
}

// validated runs schema validation on a generator response and wraps the
// task name into any failure.
func validated(name string, rec *contracts.Recommendation, universe []string) (*contracts.Recommendation, error) {
	if err := rec.Validate(universe); err != nil {
		return nil, fmt.Errorf("%s analyst: %w", name, err)
	}
	return rec, nil
}
