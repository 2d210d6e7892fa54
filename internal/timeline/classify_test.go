package timeline

import (
	"errors"
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	b := &Buckets{Good: 0.8, Neutral: 0.5, Bad: 0.2}

	tests := []struct {
		score float64
		want  Tier
	}{
		{-1, TierTerrible},
		{0, TierTerrible},
		{0.19, TierTerrible},
		{0.2, TierPoor},
		{0.3, TierPoor},
		{0.5, TierMediocre},
		{0.79, TierMediocre},
		{0.8, TierGood},
		{1, TierGood},
		{7, TierGood},
		{math.NaN(), TierTerrible},
	}
	for _, tt := range tests {
		got, ok := Classify(tt.score, b)
		if !ok {
			t.Fatalf("Classify(%v) unclassified with buckets set", tt.score)
		}
		if got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestClassifyUnsetBuckets(t *testing.T) {
	tier, ok := Classify(0.9, nil)
	if ok {
		t.Errorf("Classify with nil buckets = %q, want unclassified", tier)
	}
	if tier != "" {
		t.Errorf("tier = %q, want empty", tier)
	}
}

// rank orders tiers from worst (0) to best (3).
func (t Tier) rank() int {
	switch t {
	case TierTerrible:
		return 0
	case TierPoor:
		return 1
	case TierMediocre:
		return 2
	case TierGood:
		return 3
	}
	return -1
}

func TestClassifyMonotonic(t *testing.T) {
	sets := []Buckets{
		DefaultStaticBuckets,
		{Good: 0.9, Neutral: 0.9, Bad: 0.1},
		{Good: 0.5, Neutral: 0.5, Bad: 0.5},
		{Good: 0.95, Neutral: 0.7, Bad: 0.4},
	}
	for _, b := range sets {
		prev := -1
		for step := -10; step <= 110; step++ {
			tier, _ := Classify(float64(step)/100, &b)
			if tier.rank() < prev {
				t.Fatalf("buckets %+v: tier decreased at score %v", b, float64(step)/100)
			}
			prev = tier.rank()
		}
	}
}

func TestBucketsValidate(t *testing.T) {
	tests := []struct {
		name    string
		b       Buckets
		wantErr bool
	}{
		{"defaults", DefaultStaticBuckets, false},
		{"all_equal", Buckets{Good: 0.5, Neutral: 0.5, Bad: 0.5}, false},
		{"bad_above_neutral", Buckets{Good: 0.8, Neutral: 0.3, Bad: 0.4}, false},
		{"reversed", Buckets{Good: 0.2, Neutral: 0.5, Bad: 0.8}, false},
		{"nan", Buckets{Good: math.NaN(), Neutral: 0.5, Bad: 0.2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBuckets) {
				t.Errorf("Validate() err = %v, want ErrInvalidBuckets", err)
			}
		})
	}
}

func TestBucketsOrdered(t *testing.T) {
	if !DefaultStaticBuckets.Ordered() {
		t.Error("defaults should be ordered")
	}
	if (Buckets{Good: 0.2, Neutral: 0.5, Bad: 0.8}).Ordered() {
		t.Error("reversed buckets reported as ordered")
	}
}

func TestClassifyReversedBuckets(t *testing.T) {
	b := &Buckets{Good: 0.2, Neutral: 0.5, Bad: 0.8}
	tests := []struct {
		score float64
		want  Tier
	}{
		{0.1, TierTerrible},
		{0.6, TierTerrible},
		{0.8, TierGood},
		{0.95, TierGood},
	}
	for _, tt := range tests {
		if got, ok := Classify(tt.score, b); !ok || got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
