package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/predictarb/predictarb/internal/domain"
	"github.com/predictarb/predictarb/internal/match"
	"github.com/predictarb/predictarb/internal/snapshot"
)

type fakeSource struct {
	records []domain.MarketRecord
	err     error
}

func (f *fakeSource) Scan(_ context.Context) ([]domain.MarketRecord, error) {
	return f.records, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openRecord(venue domain.Venue, id, title string, yes, vol24 float64) domain.MarketRecord {
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.MarketRecord{
		Venue:       venue,
		ExternalID:  id,
		Title:       title,
		YesPrice:    &yes,
		VolumeTotal: vol24 * 10,
		Volume24h:   vol24,
		EndTime:     &end,
		Status:      domain.MarketStatusActive,
	}
}

func newTestRecomputer(src RecordSource) (*Recomputer, *snapshot.Store) {
	logger := testLogger()
	store := snapshot.NewStore()
	grouper := match.NewGrouper(match.Config{Threshold: 0.5}, logger)
	rec := New(Config{Interval: time.Minute}, src, grouper, store, logger)
	return rec, store
}

func TestRunCycleEndToEnd(t *testing.T) {
	src := &fakeSource{records: []domain.MarketRecord{
		openRecord(domain.VenuePolymarket, "pm-btc", "Will BTC hit $100k by 2026?", 0.62, 40000),
		openRecord(domain.VenueKalshi, "ka-btc", "Bitcoin reaches $100,000 before 2026 — Yes", 0.70, 60000),
		openRecord(domain.VenueLimitless, "ll-rain", "Will it rain in NYC tomorrow", 0.40, 5000),
	}}
	rec, store := newTestRecomputer(src)

	snap, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(snap.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(snap.Opportunities))
	}

	opp := snap.Opportunities[0]
	if opp.BestBuy.Venue != domain.VenuePolymarket || opp.BestBuy.Price != 0.62 {
		t.Errorf("bestBuy = %+v, want polymarket@0.62", opp.BestBuy)
	}
	if opp.BestSell.Venue != domain.VenueKalshi || opp.BestSell.Price != 0.70 {
		t.Errorf("bestSell = %+v, want kalshi@0.70", opp.BestSell)
	}
	if math.Abs(opp.SpreadPercent-12.9) > 0.1 {
		t.Errorf("spreadPercent = %v, want ~12.9", opp.SpreadPercent)
	}
	// Representative title comes from the highest-volume member.
	if opp.Title != "Bitcoin reaches $100,000 before 2026 — Yes" {
		t.Errorf("title = %q, want the kalshi (higher volume) title", opp.Title)
	}
	if opp.MatchScore < 0.5 {
		t.Errorf("matchScore = %v, want >= 0.5", opp.MatchScore)
	}
	if opp.ID == "" || opp.StrategySummary == "" || len(opp.StrategySteps) == 0 {
		t.Error("opportunity missing enrichment fields")
	}

	// The published snapshot is identical to the returned one.
	if cur := store.Current(); cur.Version != snap.Version || len(cur.Opportunities) != 1 {
		t.Errorf("store snapshot = v%d/%d opps, want v%d/1", cur.Version, len(cur.Opportunities), snap.Version)
	}
	if snap.Stats.TotalOpportunities != 1 || snap.Stats.MarketsScanned != 3 || snap.Stats.PlatformPairs != 1 {
		t.Errorf("unexpected stats: %+v", snap.Stats)
	}
}

func TestEmittedOpportunityInvariants(t *testing.T) {
	src := &fakeSource{records: []domain.MarketRecord{
		openRecord(domain.VenuePolymarket, "pm-1", "Fed cuts interest rates in March 2026", 0.30, 1000),
		openRecord(domain.VenueKalshi, "ka-1", "Fed cuts interest rates March 2026", 0.35, 2000),
		openRecord(domain.VenueOpinionTrade, "ot-1", "Will the Fed cut interest rates in March 2026?", 0.32, 1500),
	}}
	rec, _ := newTestRecomputer(src)

	snap, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	for _, o := range snap.Opportunities {
		if len(o.Members) < 2 {
			t.Errorf("opportunity %s spans %d venues, want >= 2", o.ID, len(o.Members))
		}
		if o.BestBuy.Price > o.BestSell.Price {
			t.Errorf("opportunity %s: bestBuy %v > bestSell %v", o.ID, o.BestBuy.Price, o.BestSell.Price)
		}
		if o.SpreadPercent < 0 {
			t.Errorf("opportunity %s: negative spread percent", o.ID)
		}
		if o.FeasibilityScore < 0 || o.FeasibilityScore > 100 {
			t.Errorf("opportunity %s: feasibility %v out of range", o.ID, o.FeasibilityScore)
		}
		if o.MatchScore < 0 || o.MatchScore > 1 {
			t.Errorf("opportunity %s: match score %v out of range", o.ID, o.MatchScore)
		}
	}
}

func TestFailedScanKeepsPreviousSnapshot(t *testing.T) {
	src := &fakeSource{records: []domain.MarketRecord{
		openRecord(domain.VenuePolymarket, "pm-btc", "Will BTC hit $100k by 2026?", 0.62, 40000),
		openRecord(domain.VenueKalshi, "ka-btc", "Bitcoin reaches $100,000 before 2026 — Yes", 0.70, 60000),
	}}
	rec, store := newTestRecomputer(src)

	first, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("first cycle: %v", err)
	}

	src.err = errors.New("all venues down")
	if _, err := rec.RunCycle(context.Background()); err == nil {
		t.Fatal("expected error from failed scan")
	}

	cur := store.Current()
	if cur.Version != first.Version {
		t.Errorf("snapshot version changed after failed cycle: %d -> %d", first.Version, cur.Version)
	}
	if len(cur.Opportunities) != len(first.Opportunities) {
		t.Error("stale snapshot was replaced by a partial result")
	}
}

func TestExpiredContextNeverPublishes(t *testing.T) {
	src := &fakeSource{records: []domain.MarketRecord{
		openRecord(domain.VenuePolymarket, "pm-btc", "Will BTC hit $100k by 2026?", 0.62, 40000),
		openRecord(domain.VenueKalshi, "ka-btc", "Bitcoin reaches $100,000 before 2026 — Yes", 0.70, 60000),
	}}
	rec, store := newTestRecomputer(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rec.RunCycle(ctx); err == nil {
		t.Fatal("expected error from expired context")
	}
	if cur := store.Current(); cur.Version != 0 {
		t.Errorf("cancelled cycle published version %d", cur.Version)
	}
}

func TestSubscribersReceivePublishedSnapshot(t *testing.T) {
	src := &fakeSource{records: []domain.MarketRecord{
		openRecord(domain.VenuePolymarket, "pm-btc", "Will BTC hit $100k by 2026?", 0.62, 40000),
		openRecord(domain.VenueKalshi, "ka-btc", "Bitcoin reaches $100,000 before 2026 — Yes", 0.70, 60000),
	}}
	rec, _ := newTestRecomputer(src)
	sub := rec.Subscribe()

	snap, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	select {
	case got := <-sub:
		if got.Version != snap.Version {
			t.Errorf("subscriber got version %d, want %d", got.Version, snap.Version)
		}
	default:
		t.Fatal("subscriber did not receive snapshot")
	}
}

func TestSlowSubscriberDoesNotBlockAndSeesLatest(t *testing.T) {
	src := &fakeSource{records: []domain.MarketRecord{
		openRecord(domain.VenuePolymarket, "pm-btc", "Will BTC hit $100k by 2026?", 0.62, 40000),
		openRecord(domain.VenueKalshi, "ka-btc", "Bitcoin reaches $100,000 before 2026 — Yes", 0.70, 60000),
	}}
	rec, _ := newTestRecomputer(src)
	sub := rec.Subscribe()

	// Two publishes with nobody reading: the second must replace the first.
	if _, err := rec.RunCycle(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	second, err := rec.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	got := <-sub
	if got.Version != second.Version {
		t.Errorf("slow subscriber got version %d, want latest %d", got.Version, second.Version)
	}
}
