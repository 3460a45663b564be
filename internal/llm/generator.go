package llm

import (
	"context"

	"github.com/triadlabs/triad/internal/contracts"
)

// Generator is the reasoning capability boundary: given system
// instructions and evidence messages it produces a schema-validated
// Recommendation. It is an injected dependency everywhere — never a
// package global — so tasks and the coordinator can be tested against a
// deterministic stub.
type Generator interface {
	Generate(ctx context.Context, system string, evidence []string) (*contracts.Recommendation, error)
}
