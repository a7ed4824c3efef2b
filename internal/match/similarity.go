package match

import (
	"math"
	"strings"
)

const (
	// substringBoost is the floor applied when one normalized title fully
	// contains the other.
	substringBoost = 0.8
	// exactRatioBoost is the floor applied when exact token matches cover at
	// least exactRatio of the shorter title's tokens.
	exactRatioBoost = 0.75
	exactRatio      = 0.6

	exactCredit   = 1.0
	partialCredit = 0.5
)

// Score computes a similarity in [0,1] between two raw titles. It is
// symmetric, returns 1.0 for identical non-empty titles, and 0 for degenerate
// input. It never fails.
//
// Tokens earn full credit for an exact match and half credit when one token
// contains the other; the sum is divided by the larger token count. Two
// boosts raise the floor: full-title containment, and a high ratio of exact
// matches relative to the shorter title.
func Score(titleA, titleB string) float64 {
	na, nb := NormalizeTitle(titleA), NormalizeTitle(titleB)
	return scoreNormalized(na, nb, Tokenize(na), Tokenize(nb))
}

// scoreNormalized scores pre-normalized, pre-tokenized titles. The grouper
// uses this form to avoid re-normalizing the same title once per pair.
func scoreNormalized(na, nb string, wa, wb []string) float64 {
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	// Word overlap is computed in both directions and the better direction
	// wins, which keeps the score symmetric under duplicated tokens and
	// one-sided containment.
	denom := float64(max(len(wa), len(wb)))
	creditAB, exactAB := overlap(wa, wb)
	creditBA, exactBA := overlap(wb, wa)
	score := math.Max(creditAB, creditBA) / denom
	exact := max(exactAB, exactBA)

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		score = math.Max(score, substringBoost)
	}
	if float64(exact) >= exactRatio*float64(min(len(wa), len(wb))) {
		score = math.Max(score, exactRatioBoost)
	}

	return clamp01(score)
}

// overlap sums matching credit for tokens of src against dst: exactCredit for
// an exact match, partialCredit when either token is a substring of the
// other. It also returns the exact-match count.
func overlap(src, dst []string) (credit float64, exact int) {
	dstSet := make(map[string]struct{}, len(dst))
	for _, t := range dst {
		dstSet[t] = struct{}{}
	}
	for _, t := range src {
		if _, ok := dstSet[t]; ok {
			credit += exactCredit
			exact++
			continue
		}
		for _, u := range dst {
			if strings.Contains(t, u) || strings.Contains(u, t) {
				credit += partialCredit
				break
			}
		}
	}
	return credit, exact
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
