package domain

import (
	"sort"
	"strings"
)

// Confidence buckets an opportunity's match score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// FeasibilityLabel buckets an opportunity's feasibility score.
type FeasibilityLabel string

const (
	FeasibilityExcellent FeasibilityLabel = "excellent"
	FeasibilityGood      FeasibilityLabel = "good"
	FeasibilityFair      FeasibilityLabel = "fair"
	FeasibilityPoor      FeasibilityLabel = "poor"
)

// Quote is one leg of an opportunity: a venue and its YES price.
type Quote struct {
	Venue Venue
	Price float64
}

// Opportunity is a cluster of same-event listings across two or more venues,
// enriched with spread, feasibility, confidence, and a trading strategy.
// Opportunities are built fresh on every recompute cycle and never mutated.
type Opportunity struct {
	ID      string
	Title   string // representative title, taken from the highest-volume member
	Members map[Venue]MarketRecord

	BestBuy  Quote
	BestSell Quote

	Spread          float64
	SpreadPercent   float64
	ProfitPotential float64

	MatchScore float64
	Confidence Confidence

	FeasibilityScore  float64
	FeasibilityLabel  FeasibilityLabel
	MinSideVolume     float64
	EstimatedSlippage float64

	StrategySummary string
	StrategySteps   []string
}

// Venues returns the member venues in stable (sorted) order.
func (o Opportunity) Venues() []Venue {
	vs := make([]Venue, 0, len(o.Members))
	for v := range o.Members {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}

// AverageVolume is the mean 24h volume across members, used as a sort key.
func (o Opportunity) AverageVolume() float64 {
	if len(o.Members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range o.Members {
		sum += m.Volume24h
	}
	return sum / float64(len(o.Members))
}

// Fingerprint identifies the underlying cluster across recompute cycles. The
// Opportunity ID changes every cycle; the fingerprint stays stable as long as
// the same venue listings are involved, which is what alert dedupe keys on.
func (o Opportunity) Fingerprint() string {
	parts := make([]string, 0, len(o.Members))
	for v, m := range o.Members {
		parts = append(parts, string(v)+":"+m.ExternalID)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
