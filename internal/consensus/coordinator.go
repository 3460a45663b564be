// Package consensus merges the three analyst opinions into one final
// recommendation per ticker. Almost every vote shape resolves through a
// fixed table; only a near-consensus with one abstention (two BUYs plus a
// HOLD, or two SELLs plus a HOLD) is escalated to the generator for a
// tie-break, and even then the answer is constrained to the majority
// decision or HOLD.
package consensus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/triadlabs/triad/internal/contracts"
	"github.com/triadlabs/triad/internal/llm"
	"github.com/triadlabs/triad/pkg/logger"
)

// Opinion is one analyst's validated recommendation over the universe.
type Opinion struct {
	Analyst        string                    `json:"analyst"`
	Recommendation *contracts.Recommendation `json:"recommendation"`
}

// expected number of independent opinions per ticker.
const opinionCount = 3

const judgmentSystemPrompt = `You are the final decision coordinator. Two of three
analysts voted the same way and the third voted HOLD. You will receive the
ticker, the vote tally, and each analyst's justification.

Decide whether the majority case is strong enough to act on:
- If the majority reasoning is convincing, recommend the majority decision.
- If the abstaining analyst raises a real concern, recommend "HOLD".

You must answer for exactly this one ticker with exactly one of those two
decisions, and justify it in one or two sentences.`

// Coordinator resolves vote tallies into final decisions.
type Coordinator struct {
	gen    llm.Generator
	logger *logger.Logger
}

// NewCoordinator creates a coordinator using gen only for escalated tallies.
func NewCoordinator(gen llm.Generator, log *logger.Logger) *Coordinator {
	return &Coordinator{gen: gen, logger: log}
}

type judgmentEvidence struct {
	Ticker         string             `json:"ticker"`
	Tally          string             `json:"tally"`
	Majority       contracts.Decision `json:"majority_decision"`
	Justifications map[string]string  `json:"analyst_justifications"`
}

// Resolve merges the opinions ticker by ticker. It fails on the first
// ticker whose votes cannot be resolved; a partial consensus is never
// returned.
func (c *Coordinator) Resolve(ctx context.Context, tickers []string, opinions []Opinion) (*contracts.Recommendation, error) {
	if len(opinions) != opinionCount {
		return nil, contracts.NewSchemaViolation("expected %d opinions, got %d", opinionCount, len(opinions))
	}
	for _, op := range opinions {
		if err := op.Recommendation.Validate(tickers); err != nil {
			return nil, fmt.Errorf("%s opinion: %w", op.Analyst, err)
		}
	}

	final := &contracts.Recommendation{}
	for _, ticker := range tickers {
		decision, justification, err := c.resolveTicker(ctx, ticker, opinions)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", ticker, err)
		}
		final.Append(ticker, decision, justification)
	}

	if err := final.Validate(tickers); err != nil {
		return nil, fmt.Errorf("consensus: %w", err)
	}
	return final, nil
}

func (c *Coordinator) resolveTicker(ctx context.Context, ticker string, opinions []Opinion) (contracts.Decision, string, error) {
	var tally contracts.VoteTally
	for _, op := range opinions {
		decision, ok := op.Recommendation.DecisionFor(ticker)
		if !ok {
			return "", "", contracts.NewSchemaViolation("%s opinion has no decision for %s", op.Analyst, ticker)
		}
		tally.Add(decision)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"tally":  tally.String(),
	}).Debug("resolving votes")

	switch {
	case tally.Buy == 3:
		return contracts.Buy, "unanimous BUY across all three analysts", nil
	case tally.Sell == 3:
		return contracts.Sell, "unanimous SELL across all three analysts", nil
	case tally.Hold == 3:
		return contracts.Hold, "unanimous HOLD across all three analysts", nil
	case tally.Buy == 2 && tally.Sell == 1:
		return contracts.Hold, "BUY majority contradicted by a SELL, defaulting to HOLD", nil
	case tally.Sell == 2 && tally.Buy == 1:
		return contracts.Hold, "SELL majority contradicted by a BUY, defaulting to HOLD", nil
	case tally.Hold == 2:
		return contracts.Hold, "HOLD majority, no actionable consensus", nil
	case tally.Buy == 2 && tally.Hold == 1:
		return c.judge(ctx, ticker, tally, contracts.Buy, opinions)
	case tally.Sell == 2 && tally.Hold == 1:
		return c.judge(ctx, ticker, tally, contracts.Sell, opinions)
	default:
		// one vote each way; the universe of shapes above is otherwise complete
		return "", "", contracts.NewSchemaViolation("unresolvable vote tally %s for %s", tally.String(), ticker)
	}
}

// judge escalates a two-versus-HOLD tally to the generator and enforces
// that the answer stays within the allowed pair of decisions.
func (c *Coordinator) judge(ctx context.Context, ticker string, tally contracts.VoteTally, majority contracts.Decision, opinions []Opinion) (contracts.Decision, string, error) {
	justifications := make(map[string]string, len(opinions))
	for _, op := range opinions {
		decision, _ := op.Recommendation.DecisionFor(ticker)
		text, _ := op.Recommendation.JustificationFor(ticker)
		justifications[op.Analyst] = fmt.Sprintf("voted %s: %s", decision, text)
	}

	evidence, err := json.Marshal(judgmentEvidence{
		Ticker:         ticker,
		Tally:          tally.String(),
		Majority:       majority,
		Justifications: justifications,
	})
	if err != nil {
		return "", "", fmt.Errorf("marshal judgment evidence: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"majority": majority,
	}).Info("escalating tally to judgment")

	rec, err := c.gen.Generate(ctx, judgmentSystemPrompt, []string{string(evidence)})
	if err != nil {
		return "", "", fmt.Errorf("judgment: %w", err)
	}
	if err := rec.Validate([]string{ticker}); err != nil {
		return "", "", fmt.Errorf("judgment: %w", err)
	}

	decision, _ := rec.DecisionFor(ticker)
	if decision != majority && decision != contracts.Hold {
		return "", "", contracts.NewSchemaViolation("judgment returned %s for %s, allowed %s or %s", decision, ticker, majority, contracts.Hold)
	}

	justification, _ := rec.JustificationFor(ticker)
	return decision, justification, nil
}
