package engine

import (
	"testing"

	"github.com/predictarb/predictarb/internal/domain"
)

func TestEstimateSlippageMonotonicallyDecreasing(t *testing.T) {
	volumes := []float64{0, 100, 1000, 10000, 100000, 1000000}
	prev := EstimateSlippage(volumes[0])
	for _, v := range volumes[1:] {
		cur := EstimateSlippage(v)
		if cur >= prev {
			t.Errorf("slippage not decreasing: %v at volume %v (prev %v)", cur, v, prev)
		}
		prev = cur
	}
}

func TestFeasibilityScoreRange(t *testing.T) {
	volumes := []float64{-5, 0, 1, 500, 50000, 1e6, 1e9}
	for _, v := range volumes {
		score := FeasibilityScore(v, EstimateSlippage(v))
		if score < 0 || score > 100 {
			t.Errorf("FeasibilityScore(volume=%v) = %v, out of [0,100]", v, score)
		}
	}
}

func TestFeasibilityScoreIncreasesWithVolume(t *testing.T) {
	low := FeasibilityScore(100, EstimateSlippage(100))
	high := FeasibilityScore(500000, EstimateSlippage(500000))
	if high <= low {
		t.Errorf("feasibility should favor volume: low=%v high=%v", low, high)
	}
}

func TestLabelFeasibilityBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.FeasibilityLabel
	}{
		{100, domain.FeasibilityExcellent},
		{80, domain.FeasibilityExcellent},
		{79.999, domain.FeasibilityGood},
		{60, domain.FeasibilityGood},
		{59.999, domain.FeasibilityFair},
		{35, domain.FeasibilityFair},
		{34.999, domain.FeasibilityPoor},
		{0, domain.FeasibilityPoor},
	}
	for _, tt := range tests {
		if got := LabelFeasibility(tt.score); got != tt.want {
			t.Errorf("LabelFeasibility(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
