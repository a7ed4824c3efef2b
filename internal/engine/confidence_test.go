package engine

import (
	"testing"

	"github.com/predictarb/predictarb/internal/domain"
)

func TestClassifyConfidenceBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.Confidence
	}{
		{1.0, domain.ConfidenceHigh},
		{0.65, domain.ConfidenceHigh},
		{0.6499, domain.ConfidenceMedium},
		{0.35, domain.ConfidenceMedium},
		{0.3499, domain.ConfidenceLow},
		{0, domain.ConfidenceLow},
	}
	for _, tt := range tests {
		if got := ClassifyConfidence(tt.score); got != tt.want {
			t.Errorf("ClassifyConfidence(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}
