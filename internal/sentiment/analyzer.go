package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// Analyzer scores free text into a compound polarity value in [-1, 1]
// using a valence lexicon tuned for financial headlines. The compound is
// the normalized sum of token valences, with simple negation flipping.
type Analyzer struct {
	lexicon  map[string]float64
	negators map[string]bool
}

// normalization constant; keeps the compound bounded and comparable
// across headline lengths.
const alpha = 15.0

// negation dampening applied to a flipped valence.
const negationScalar = -0.74

// NewAnalyzer creates an analyzer with the built-in lexicon.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		lexicon:  defaultLexicon(),
		negators: defaultNegators(),
	}
}

// Compound scores one piece of text. Empty or fully neutral text scores 0.
func (a *Analyzer) Compound(text string) float64 {
	tokens := tokenize(text)

	var sum float64
	for i, token := range tokens {
		valence, ok := a.lexicon[token]
		if !ok {
			continue
		}

		if i > 0 && a.negators[tokens[i-1]] {
			valence *= negationScalar
		}

		sum += valence
	}

	if sum == 0 {
		return 0
	}

	compound := sum / math.Sqrt(sum*sum+alpha)

	// Guard the bounds; the normalization already keeps |compound| < 1.
	if compound > 1 {
		compound = 1
	} else if compound < -1 {
		compound = -1
	}

	return compound
}

// tokenize lowercases and splits on non-letter runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func defaultNegators() map[string]bool {
	return map[string]bool{
		"not": true, "no": true, "never": true, "neither": true,
		"nor": true, "without": true, "hardly": true, "barely": true,
		"isn't": true, "wasn't": true, "doesn't": true, "didn't": true,
		"won't": true, "can't": true, "cannot": true,
	}
}

// defaultLexicon maps sentiment-bearing tokens to valences roughly on the
// VADER scale (-4 to 4, scaled down to about -1..1 after normalization).
func defaultLexicon() map[string]float64 {
	return map[string]float64{
		// positive
		"gain": 1.6, "gains": 1.6, "surge": 2.1, "surges": 2.1,
		"soar": 2.3, "soars": 2.3, "rally": 1.9, "rallies": 1.9,
		"beat": 1.7, "beats": 1.7, "record": 1.5, "strong": 1.8,
		"growth": 1.6, "grow": 1.4, "grows": 1.4, "profit": 1.7,
		"profits": 1.7, "profitable": 1.8, "upgrade": 1.9, "upgraded": 1.9,
		"outperform": 2.0, "outperforms": 2.0, "bullish": 2.2,
		"optimistic": 1.8, "positive": 1.7, "win": 1.6, "wins": 1.6,
		"success": 1.9, "successful": 1.9, "boom": 2.0, "breakthrough": 2.1,
		"innovative": 1.5, "expansion": 1.4, "expand": 1.3, "expands": 1.3,
		"dividend": 1.0, "buyback": 1.2, "upbeat": 1.8, "top": 1.2,
		"tops": 1.4, "jump": 1.7, "jumps": 1.7, "climb": 1.5, "climbs": 1.5,
		"recovery": 1.5, "recover": 1.4, "recovers": 1.4, "momentum": 1.1,
		"opportunity": 1.3, "best": 1.9, "exceed": 1.7, "exceeds": 1.7,

		// negative
		"loss": -1.7, "losses": -1.7, "plunge": -2.3, "plunges": -2.3,
		"crash": -2.6, "crashes": -2.6, "fall": -1.5, "falls": -1.5,
		"drop": -1.5, "drops": -1.5, "decline": -1.6, "declines": -1.6,
		"miss": -1.7, "misses": -1.7, "weak": -1.7, "weakness": -1.7,
		"downgrade": -1.9, "downgraded": -1.9, "underperform": -2.0,
		"bearish": -2.2, "pessimistic": -1.8, "negative": -1.7,
		"lawsuit": -1.8, "sued": -1.8, "probe": -1.5, "investigation": -1.6,
		"fraud": -2.8, "scandal": -2.4, "recall": -1.7, "layoff": -2.0,
		"layoffs": -2.0, "cut": -1.3, "cuts": -1.3, "slump": -2.0,
		"slumps": -2.0, "tumble": -2.0, "tumbles": -2.0, "fear": -1.8,
		"fears": -1.8, "risk": -1.2, "risks": -1.2, "warning": -1.6,
		"warns": -1.6, "bankruptcy": -2.9, "default": -2.2, "debt": -1.1,
		"fine": -1.4, "fined": -1.6, "penalty": -1.5, "disappointing": -2.0,
		"disappoints": -2.0, "worst": -2.2, "plummet": -2.4, "plummets": -2.4,
		"pressure": -1.2, "concern": -1.3, "concerns": -1.3, "sell-off": -2.0,
		"selloff": -2.0, "recession": -2.1, "crisis": -2.3, "halt": -1.5,
		"halts": -1.5, "delay": -1.3, "delays": -1.3, "shortfall": -1.8,
	}
}
