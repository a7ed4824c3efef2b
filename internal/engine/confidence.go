package engine

import "github.com/predictarb/predictarb/internal/domain"

// Confidence bucket boundaries. Exact per the serving contract.
const (
	confidenceHighMin   = 0.65
	confidenceMediumMin = 0.35
)

// ClassifyConfidence buckets a match score into high/medium/low.
func ClassifyConfidence(matchScore float64) domain.Confidence {
	switch {
	case matchScore >= confidenceHighMin:
		return domain.ConfidenceHigh
	case matchScore >= confidenceMediumMin:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
