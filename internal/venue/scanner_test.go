package venue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/predictarb/predictarb/internal/domain"
)

type stubFeed struct {
	venue domain.Venue
	recs  []domain.MarketRecord
	err   error
}

func (f *stubFeed) Name() domain.Venue { return f.venue }

func (f *stubFeed) FetchOpen(context.Context) ([]domain.MarketRecord, error) {
	return f.recs, f.err
}

type stubCache struct {
	stored map[domain.Venue][]domain.MarketRecord
}

func (c *stubCache) SetRecords(_ context.Context, v domain.Venue, recs []domain.MarketRecord) error {
	if c.stored == nil {
		c.stored = make(map[domain.Venue][]domain.MarketRecord)
	}
	c.stored[v] = recs
	return nil
}

func (c *stubCache) GetRecords(_ context.Context, v domain.Venue) ([]domain.MarketRecord, error) {
	return c.stored[v], nil
}

func rec(v domain.Venue, id string) domain.MarketRecord {
	return domain.MarketRecord{Venue: v, ExternalID: id}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScanCombinesAllVenues(t *testing.T) {
	s := NewScanner([]Feed{
		&stubFeed{venue: domain.VenuePolymarket, recs: []domain.MarketRecord{rec(domain.VenuePolymarket, "a")}},
		&stubFeed{venue: domain.VenueKalshi, recs: []domain.MarketRecord{rec(domain.VenueKalshi, "b"), rec(domain.VenueKalshi, "c")}},
	}, nil, testLogger())

	records, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
}

func TestScanDegradesWhenOneVenueFails(t *testing.T) {
	s := NewScanner([]Feed{
		&stubFeed{venue: domain.VenuePolymarket, recs: []domain.MarketRecord{rec(domain.VenuePolymarket, "a")}},
		&stubFeed{venue: domain.VenueKalshi, err: errors.New("timeout")},
	}, nil, testLogger())

	records, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestScanAllVenuesFailed(t *testing.T) {
	s := NewScanner([]Feed{
		&stubFeed{venue: domain.VenuePolymarket, err: errors.New("down")},
		&stubFeed{venue: domain.VenueKalshi, err: errors.New("down")},
	}, nil, testLogger())

	_, err := s.Scan(context.Background())
	if !errors.Is(err, domain.ErrNoVenueData) {
		t.Fatalf("Scan() error = %v, want ErrNoVenueData", err)
	}
}

func TestScanServesCachedRecordsOnFailure(t *testing.T) {
	cache := &stubCache{stored: map[domain.Venue][]domain.MarketRecord{
		domain.VenueKalshi: {rec(domain.VenueKalshi, "cached")},
	}}
	s := NewScanner([]Feed{
		&stubFeed{venue: domain.VenuePolymarket, recs: []domain.MarketRecord{rec(domain.VenuePolymarket, "a")}},
		&stubFeed{venue: domain.VenueKalshi, err: errors.New("down")},
	}, cache, testLogger())

	records, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (live + cached)", len(records))
	}

	// The successful fetch refreshed the cache.
	if len(cache.stored[domain.VenuePolymarket]) != 1 {
		t.Error("expected successful fetch to be cached")
	}
}
