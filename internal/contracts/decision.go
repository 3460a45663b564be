package contracts

import "fmt"

// Decision is an analyst verdict for a single ticker.
type Decision string

const (
	Buy  Decision = "BUY"
	Hold Decision = "HOLD"
	Sell Decision = "SELL"
)

// Valid reports whether d is one of BUY, HOLD, SELL.
func (d Decision) Valid() bool {
	switch d {
	case Buy, Hold, Sell:
		return true
	}
	return false
}

// ParseDecision converts a string into a Decision, rejecting anything
// outside the three-way vocabulary.
func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	if !d.Valid() {
		return "", NewSchemaViolation("decision %q is not one of BUY, HOLD, SELL", s)
	}
	return d, nil
}

// VoteTally counts BUY/HOLD/SELL votes for a single ticker across the
// three analysts. A complete tally always sums to 3.
type VoteTally struct {
	Buy  int
	Hold int
	Sell int
}

// Add records one vote.
func (t *VoteTally) Add(d Decision) {
	switch d {
	case Buy:
		t.Buy++
	case Hold:
		t.Hold++
	case Sell:
		t.Sell++
	}
}

// Total returns the number of votes recorded.
func (t VoteTally) Total() int {
	return t.Buy + t.Hold + t.Sell
}

// String renders the tally for logs and error messages.
func (t VoteTally) String() string {
	return fmt.Sprintf("{BUY:%d HOLD:%d SELL:%d}", t.Buy, t.Hold, t.Sell)
}
