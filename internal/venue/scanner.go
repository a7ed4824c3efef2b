package venue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/predictarb/predictarb/internal/domain"
)

// Scanner collects open listings from every configured feed in parallel.
// A failing venue degrades the cycle instead of aborting it: the scanner
// falls back to the record cache when one is configured, and only errors
// when no venue produced any records at all.
type Scanner struct {
	feeds  []Feed
	cache  domain.RecordCache // optional
	logger *slog.Logger
}

// NewScanner creates a Scanner over the given feeds. cache may be nil.
func NewScanner(feeds []Feed, cache domain.RecordCache, logger *slog.Logger) *Scanner {
	return &Scanner{
		feeds:  feeds,
		cache:  cache,
		logger: logger.With(slog.String("component", "venue_scanner")),
	}
}

// Scan fetches from all feeds concurrently and returns the combined records.
func (s *Scanner) Scan(ctx context.Context) ([]domain.MarketRecord, error) {
	if len(s.feeds) == 0 {
		return nil, fmt.Errorf("venue: %w: no feeds configured", domain.ErrNoVenueData)
	}

	var (
		mu      sync.Mutex
		records []domain.MarketRecord
		fetched int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, feed := range s.feeds {
		g.Go(func() error {
			recs := s.fetchVenue(gctx, feed)
			if recs == nil {
				return nil
			}
			mu.Lock()
			records = append(records, recs...)
			fetched++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("venue: scan: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("venue: scan: %w", err)
	}

	if fetched == 0 {
		return nil, fmt.Errorf("venue: %w: all %d venues failed", domain.ErrNoVenueData, len(s.feeds))
	}
	if fetched < len(s.feeds) {
		s.logger.WarnContext(ctx, "scan degraded",
			slog.Int("venues_ok", fetched),
			slog.Int("venues_total", len(s.feeds)))
	}
	return records, nil
}

// fetchVenue fetches one venue, serving the cached records on failure and
// refreshing the cache on success. Returns nil when neither is available.
func (s *Scanner) fetchVenue(ctx context.Context, feed Feed) []domain.MarketRecord {
	name := feed.Name()

	recs, err := feed.FetchOpen(ctx)
	if err == nil {
		if s.cache != nil {
			if cerr := s.cache.SetRecords(ctx, name, recs); cerr != nil {
				s.logger.WarnContext(ctx, "record cache write failed",
					slog.String("venue", string(name)), slog.Any("error", cerr))
			}
		}
		return recs
	}

	s.logger.WarnContext(ctx, "venue fetch failed",
		slog.String("venue", string(name)), slog.Any("error", err))

	if s.cache == nil {
		return nil
	}
	cached, cerr := s.cache.GetRecords(ctx, name)
	if cerr != nil || len(cached) == 0 {
		return nil
	}
	s.logger.InfoContext(ctx, "serving cached records",
		slog.String("venue", string(name)), slog.Int("count", len(cached)))
	return cached
}
