package snapshot

import (
	"fmt"
	"slices"
	"strings"

	"github.com/predictarb/predictarb/internal/domain"
	"github.com/predictarb/predictarb/internal/match"
)

// SortKey selects the ranking order for a query. All sort orders are
// descending.
type SortKey string

const (
	SortBySpreadPercent   SortKey = "spread_percent"
	SortByProfitPotential SortKey = "profit_potential"
	SortByAverageVolume   SortKey = "avg_volume"
)

// ParseSortKey validates a sort key from the API; empty defaults to
// spread_percent.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "", SortBySpreadPercent:
		return SortBySpreadPercent, nil
	case SortByProfitPotential:
		return SortByProfitPotential, nil
	case SortByAverageVolume:
		return SortByAverageVolume, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", domain.ErrInvalidQuery, s)
	}
}

// Query is one read request against the current snapshot.
type Query struct {
	MinSpreadPercent float64
	MinMatchScore    float64
	Title            string       // optional normalized-substring filter
	Venue            domain.Venue // optional; opportunity must include this venue
	SortBy           SortKey
	Limit            int
	Offset           int
}

// Validate rejects out-of-range parameters before any work is done.
func (q Query) Validate() error {
	if q.MinMatchScore < 0 || q.MinMatchScore > 1 {
		return fmt.Errorf("%w: min_match_score must be in [0,1], got %v", domain.ErrInvalidQuery, q.MinMatchScore)
	}
	if q.MinSpreadPercent < 0 {
		return fmt.Errorf("%w: min_spread must be >= 0, got %v", domain.ErrInvalidQuery, q.MinSpreadPercent)
	}
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("%w: limit and offset must be >= 0", domain.ErrInvalidQuery)
	}
	if q.Venue != "" && !q.Venue.Valid() {
		return fmt.Errorf("%w: unknown venue %q", domain.ErrInvalidQuery, q.Venue)
	}
	if _, err := ParseSortKey(string(q.SortBy)); err != nil {
		return err
	}
	return nil
}

// Apply filters, sorts, and paginates the snapshot's opportunities. It is a
// pure read: the snapshot is never modified and the result is a fresh slice.
func Apply(snap domain.Snapshot, q Query) []domain.Opportunity {
	out := make([]domain.Opportunity, 0, len(snap.Opportunities))
	titleNeedle := match.NormalizeTitle(q.Title)
	for _, o := range snap.Opportunities {
		if o.SpreadPercent < q.MinSpreadPercent || o.MatchScore < q.MinMatchScore {
			continue
		}
		if titleNeedle != "" && !strings.Contains(match.NormalizeTitle(o.Title), titleNeedle) {
			continue
		}
		if q.Venue != "" {
			if _, ok := o.Members[q.Venue]; !ok {
				continue
			}
		}
		out = append(out, o)
	}

	sortKey := q.SortBy
	if sortKey == "" {
		sortKey = SortBySpreadPercent
	}
	slices.SortStableFunc(out, func(a, b domain.Opportunity) int {
		var av, bv float64
		switch sortKey {
		case SortByProfitPotential:
			av, bv = a.ProfitPotential, b.ProfitPotential
		case SortByAverageVolume:
			av, bv = a.AverageVolume(), b.AverageVolume()
		default:
			av, bv = a.SpreadPercent, b.SpreadPercent
		}
		switch {
		case av > bv:
			return -1
		case av < bv:
			return 1
		default:
			return 0
		}
	})

	if q.Offset >= len(out) {
		return []domain.Opportunity{}
	}
	out = out[q.Offset:]
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out
}
