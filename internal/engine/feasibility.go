package engine

import (
	"math"

	"github.com/predictarb/predictarb/internal/domain"
)

// Feasibility model parameters. The coefficients are tunable; the label
// boundaries (80/60/35) are contractual.
const (
	// defaultNotionalUSD is the trade size the slippage model prices.
	defaultNotionalUSD = 1000.0

	// maxSlippagePercent caps the modeled slippage for an empty market.
	maxSlippagePercent = 5.0

	// volumeSaturation is the 24h volume (USD) at which the volume component
	// of the feasibility score saturates.
	volumeSaturation = 1_000_000.0

	volumeWeight   = 70.0
	slippageWeight = 30.0
)

// EstimateSlippage models the price impact of executing the default notional
// against a market with the given 24h volume. It decreases monotonically in
// volume: a thin market absorbs the same notional with more impact.
func EstimateSlippage(minSideVolume float64) float64 {
	if minSideVolume < 0 {
		minSideVolume = 0
	}
	return maxSlippagePercent * defaultNotionalUSD / (defaultNotionalUSD + minSideVolume)
}

// FeasibilityScore combines log-scaled volume and inverse slippage into a
// [0,100] executability score.
func FeasibilityScore(minSideVolume, slippagePercent float64) float64 {
	if minSideVolume < 0 {
		minSideVolume = 0
	}
	volumeComponent := math.Log10(1+minSideVolume) / math.Log10(1+volumeSaturation)
	if volumeComponent > 1 {
		volumeComponent = 1
	}

	slippageComponent := 1 - slippagePercent/maxSlippagePercent
	if slippageComponent < 0 {
		slippageComponent = 0
	}

	score := volumeComponent*volumeWeight + slippageComponent*slippageWeight
	return math.Min(100, math.Max(0, score))
}

// LabelFeasibility maps a feasibility score onto its label. Boundaries are
// exact: excellent at 80, good at 60, fair at 35.
func LabelFeasibility(score float64) domain.FeasibilityLabel {
	switch {
	case score >= 80:
		return domain.FeasibilityExcellent
	case score >= 60:
		return domain.FeasibilityGood
	case score >= 35:
		return domain.FeasibilityFair
	default:
		return domain.FeasibilityPoor
	}
}
