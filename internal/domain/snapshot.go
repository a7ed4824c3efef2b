package domain

import "time"

// SnapshotStats summarizes one published snapshot for the stats block of the
// opportunities API and for the WebSocket broadcast.
type SnapshotStats struct {
	TotalOpportunities   int
	AvgSpread            float64 // mean spread percent across opportunities
	TotalProfitPotential float64
	MarketsScanned       int
	PlatformPairs        int // distinct (buy venue, sell venue) pairs
}

// Snapshot is the complete output of one recompute cycle. It is published
// atomically and is immutable afterwards: readers always see either the
// previous snapshot or this one in full, never a mix.
type Snapshot struct {
	Version       uint64
	ComputedAt    time.Time
	Opportunities []Opportunity
	Stats         SnapshotStats
}
