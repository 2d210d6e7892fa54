package timeline

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBuckets is returned by Validate.
var ErrInvalidBuckets = errors.New("invalid bucket thresholds")

// Buckets holds the score cutoffs between tiers. Expected Bad <= Neutral <= Good.
// JSON keys match the transcript's word_score_buckets object.
type Buckets struct {
	Good    float64 `json:"Good"`
	Neutral float64 `json:"Neutral"`
	Bad     float64 `json:"Bad"`
}

// DefaultStaticBuckets are the user-editable thresholds before any edit.
var DefaultStaticBuckets = Buckets{Good: 0.8, Neutral: 0.5, Bad: 0.2}

// Validate rejects NaN cutoffs. Out-of-order cutoffs are allowed; Classify
// checks Bad, then Neutral, then Good, so any ordering gives a tier.
func (b Buckets) Validate() error {
	if math.IsNaN(b.Good) || math.IsNaN(b.Neutral) || math.IsNaN(b.Bad) {
		return fmt.Errorf("%w: thresholds must be numbers", ErrInvalidBuckets)
	}
	return nil
}

// Ordered reports whether Bad <= Neutral <= Good.
func (b Buckets) Ordered() bool {
	return b.Bad <= b.Neutral && b.Neutral <= b.Good
}

// Tier is the severity of a word's score.
type Tier string

const (
	TierGood     Tier = "good"
	TierMediocre Tier = "mediocre"
	TierPoor     Tier = "poor"
	TierTerrible Tier = "terrible"
)

// Classify maps score to a tier using b. It returns false when b is nil:
// without active buckets a word is unclassified, not given a default tier.
// A NaN score is Terrible.
func Classify(score float64, b *Buckets) (Tier, bool) {
	if b == nil {
		return "", false
	}
	switch {
	case math.IsNaN(score), score < b.Bad:
		return TierTerrible, true
	case score < b.Neutral:
		return TierPoor, true
	case score < b.Good:
		return TierMediocre, true
	default:
		return TierGood, true
	}
}
