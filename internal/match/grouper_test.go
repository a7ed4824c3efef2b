package match

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/predictarb/predictarb/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fptr(v float64) *float64 { return &v }

func record(venue domain.Venue, id, title string, yes float64, volume float64) domain.MarketRecord {
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.MarketRecord{
		Venue:       venue,
		ExternalID:  id,
		Title:       title,
		YesPrice:    fptr(yes),
		NoPrice:     fptr(1 - yes),
		VolumeTotal: volume,
		Volume24h:   volume / 10,
		EndTime:     &end,
		Status:      domain.MarketStatusActive,
	}
}

func TestGroupClustersSameEventAcrossVenues(t *testing.T) {
	g := NewGrouper(Config{Threshold: 0.5}, testLogger())

	records := []domain.MarketRecord{
		record(domain.VenuePolymarket, "pm-1", "Will BTC hit $100k by 2026?", 0.62, 50000),
		record(domain.VenueKalshi, "ka-1", "Bitcoin reaches $100,000 before 2026 — Yes", 0.70, 80000),
		record(domain.VenueLimitless, "ll-1", "Will it rain in NYC tomorrow", 0.40, 10000),
	}

	clusters := g.Group(records)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	c := clusters[0]
	if len(c.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(c.Members))
	}
	if c.MatchScore < 0.5 {
		t.Errorf("match score = %v, want >= 0.5", c.MatchScore)
	}
	venues := map[domain.Venue]bool{}
	for _, m := range c.Members {
		venues[m.Venue] = true
	}
	if !venues[domain.VenuePolymarket] || !venues[domain.VenueKalshi] {
		t.Errorf("cluster spans wrong venues: %v", venues)
	}
}

func TestGroupSingleVenueNeverEmitted(t *testing.T) {
	g := NewGrouper(Config{Threshold: 0.5}, testLogger())

	// Two near-identical listings on the same venue must not form a cluster.
	records := []domain.MarketRecord{
		record(domain.VenuePolymarket, "pm-1", "Will X win the election?", 0.5, 100),
		record(domain.VenuePolymarket, "pm-2", "Will X win the election?", 0.5, 200),
	}
	if clusters := g.Group(records); len(clusters) != 0 {
		t.Fatalf("expected no clusters, got %d", len(clusters))
	}
}

func TestGroupSameVenueTieBreakKeepsHigherVolume(t *testing.T) {
	g := NewGrouper(Config{Threshold: 0.5}, testLogger())

	records := []domain.MarketRecord{
		record(domain.VenuePolymarket, "pm-low", "Will X win the 2026 election", 0.55, 100),
		record(domain.VenuePolymarket, "pm-high", "Will X win the 2026 election", 0.56, 9000),
		record(domain.VenueKalshi, "ka-1", "X wins the 2026 election", 0.60, 5000),
	}

	clusters := g.Group(records)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	for _, m := range clusters[0].Members {
		if m.Venue == domain.VenuePolymarket && m.ExternalID != "pm-high" {
			t.Errorf("kept %s, want higher-volume pm-high", m.ExternalID)
		}
	}
	if len(clusters[0].Members) != 2 {
		t.Errorf("expected 2 members after dedupe, got %d", len(clusters[0].Members))
	}
}

func TestGroupSkipsIneligibleRecords(t *testing.T) {
	g := NewGrouper(Config{Threshold: 0.5}, testLogger())

	noPrice := record(domain.VenueKalshi, "ka-1", "Will BTC hit $100k by 2026?", 0.5, 100)
	noPrice.YesPrice = nil
	closed := record(domain.VenueLimitless, "ll-1", "Will BTC hit $100k by 2026?", 0.5, 100)
	closed.Status = domain.MarketStatusClosed

	records := []domain.MarketRecord{
		record(domain.VenuePolymarket, "pm-1", "Will BTC hit $100k by 2026?", 0.62, 100),
		noPrice,
		closed,
	}
	if clusters := g.Group(records); len(clusters) != 0 {
		t.Fatalf("expected no clusters from ineligible partners, got %d", len(clusters))
	}
}

func TestGroupRespectsThreshold(t *testing.T) {
	g := NewGrouper(Config{Threshold: 0.99}, testLogger())

	records := []domain.MarketRecord{
		record(domain.VenuePolymarket, "pm-1", "Will BTC hit $100k by 2026?", 0.62, 100),
		record(domain.VenueKalshi, "ka-1", "Bitcoin reaches $100,000 before 2026 — Yes", 0.70, 100),
	}
	if clusters := g.Group(records); len(clusters) != 0 {
		t.Fatalf("expected no clusters above threshold 0.99, got %d", len(clusters))
	}
}

func TestGroupBlocksByEndTime(t *testing.T) {
	g := NewGrouper(Config{Threshold: 0.5, BlockWindow: 24 * time.Hour}, testLogger())

	near := record(domain.VenuePolymarket, "pm-1", "Will BTC hit $100k by 2026?", 0.62, 100)
	farEnd := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	far := record(domain.VenueKalshi, "ka-1", "Will BTC hit $100k by 2026?", 0.70, 100)
	far.EndTime = &farEnd

	// Identical titles but end times in distant windows: never compared.
	if clusters := g.Group([]domain.MarketRecord{near, far}); len(clusters) != 0 {
		t.Fatalf("expected blocking to separate distant end times, got %d clusters", len(clusters))
	}
}
