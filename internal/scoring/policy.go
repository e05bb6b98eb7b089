// Package scoring maps a team's four sub-scores to a single overall score.
// The formula is picked from the team's category through a lookup table;
// unknown categories fall back to the plain mean.
package scoring

import (
	"fmt"
	"slices"
)

const (
	// ScoreCount is the number of sub-scores every team carries.
	ScoreCount = 4
	MinScore   = 0
	MaxScore   = 5
)

// Criteria names the sub-score positions in order.
var Criteria = [ScoreCount]string{"Creativity", "Technical", "Teamwork", "Presentation"}

// Kind tags the scoring formula.
type Kind int

const (
	KindMean Kind = iota
	KindWeightedTechnical
	KindTrimmedMean
)

func (k Kind) String() string {
	switch k {
	case KindWeightedTechnical:
		return "weighted_technical"
	case KindTrimmedMean:
		return "trimmed_mean"
	default:
		return "mean"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{KindMean, KindWeightedTechnical, KindTrimmedMean} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown scoring formula %q", b)
}

// Policy is a pure scores -> overall mapping.
type Policy struct {
	Kind Kind
}

// PolicyFor selects the policy for a category name. Matching is
// case-insensitive; unknown categories get the mean policy.
func PolicyFor(category string) Policy {
	if c, ok := Lookup(category); ok {
		return Policy{Kind: c.Kind}
	}
	return Policy{Kind: KindMean}
}

// Compute returns the overall score. The input is never modified and no
// rounding is applied. A vector that is not exactly ScoreCount long falls
// back to the mean of whatever is present.
func (p Policy) Compute(scores []int) float64 {
	if len(scores) != ScoreCount {
		return Mean(scores)
	}
	switch p.Kind {
	case KindWeightedTechnical:
		return float64(scores[0]+2*scores[1]+scores[2]+scores[3]) / 5.0
	case KindTrimmedMean:
		sorted := slices.Clone(scores)
		slices.Sort(sorted)
		return float64(sorted[1]+sorted[2]) / 2.0
	default:
		return Mean(scores)
	}
}

// Mean is the arithmetic mean, 0 for an empty slice.
func Mean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// InRange reports whether a single sub-score is within [MinScore, MaxScore].
func InRange(s int) bool {
	return s >= MinScore && s <= MaxScore
}
