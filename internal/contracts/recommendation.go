package contracts

// Recommendation holds one analyst's (or the coordinator's) verdict for a
// set of tickers as three parallel slices indexed by position. It is built
// append-only and treated as read-only afterwards.
type Recommendation struct {
	Tickers        []string   `json:"tickers"`
	Decisions      []Decision `json:"decisions"`
	Justifications []string   `json:"justifications"`
}

// Append records one ticker verdict.
func (r *Recommendation) Append(ticker string, decision Decision, justification string) {
	r.Tickers = append(r.Tickers, ticker)
	r.Decisions = append(r.Decisions, decision)
	r.Justifications = append(r.Justifications, justification)
}

// Len returns the number of tickers covered.
func (r *Recommendation) Len() int {
	return len(r.Tickers)
}

// DecisionFor returns the decision for a ticker, if present.
func (r *Recommendation) DecisionFor(ticker string) (Decision, bool) {
	for i, t := range r.Tickers {
		if t == ticker {
			return r.Decisions[i], true
		}
	}
	return "", false
}

// JustificationFor returns the justification for a ticker, if present.
func (r *Recommendation) JustificationFor(ticker string) (string, bool) {
	for i, t := range r.Tickers {
		if t == ticker {
			return r.Justifications[i], true
		}
	}
	return "", false
}

// Validate enforces the Recommendation schema against a ticker universe:
// equal slice lengths, decisions inside the three-way vocabulary, no
// duplicate tickers, and exactly one entry per requested ticker. Any
// breach is a SchemaViolationError.
func (r *Recommendation) Validate(universe []string) error {
	if len(r.Tickers) != len(r.Decisions) || len(r.Tickers) != len(r.Justifications) {
		return NewSchemaViolation(
			"parallel arrays differ in length: tickers=%d decisions=%d justifications=%d",
			len(r.Tickers), len(r.Decisions), len(r.Justifications))
	}

	seen := make(map[string]bool, len(r.Tickers))
	for i, t := range r.Tickers {
		if seen[t] {
			return NewSchemaViolation("duplicate ticker %q", t)
		}
		seen[t] = true

		if !r.Decisions[i].Valid() {
			return NewSchemaViolation("decision %q for ticker %q is not one of BUY, HOLD, SELL",
				string(r.Decisions[i]), t)
		}
	}

	for _, t := range universe {
		if !seen[t] {
			return NewSchemaViolation("ticker %q missing from recommendation", t)
		}
	}

	if len(r.Tickers) != len(universe) {
		return NewSchemaViolation("recommendation covers %d tickers, universe has %d",
			len(r.Tickers), len(universe))
	}

	return nil
}
