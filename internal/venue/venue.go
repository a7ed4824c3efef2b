// Package venue defines the market-feed abstraction and the scanner that
// fans fetches out across every configured venue.
package venue

import (
	"context"

	"github.com/predictarb/predictarb/internal/domain"
)

// Feed fetches the currently open listings from one venue, already mapped to
// domain records. Implementations skip malformed entries instead of failing
// the whole fetch.
type Feed interface {
	Name() domain.Venue
	FetchOpen(ctx context.Context) ([]domain.MarketRecord, error)
}
