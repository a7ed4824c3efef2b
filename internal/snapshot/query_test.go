package snapshot

import (
	"testing"

	"github.com/predictarb/predictarb/internal/domain"
)

func opp(id string, spreadPct, matchScore, profit float64, venues ...domain.Venue) domain.Opportunity {
	members := make(map[domain.Venue]domain.MarketRecord, len(venues))
	for i, v := range venues {
		members[v] = domain.MarketRecord{Venue: v, ExternalID: id + "-" + string(v), Volume24h: float64(1000 * (i + 1))}
	}
	return domain.Opportunity{
		ID:              id,
		Title:           "Will BTC hit $100k by 2026 (" + id + ")",
		Members:         members,
		SpreadPercent:   spreadPct,
		MatchScore:      matchScore,
		ProfitPotential: profit,
	}
}

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Version: 7,
		Opportunities: []domain.Opportunity{
			opp("a", 5, 0.9, 800, domain.VenuePolymarket, domain.VenueKalshi),
			opp("b", 15, 0.4, 200, domain.VenuePolymarket, domain.VenueLimitless),
			opp("c", 10, 0.7, 500, domain.VenueKalshi, domain.VenueOpinionTrade),
		},
	}
}

func ids(opps []domain.Opportunity) []string {
	out := make([]string, len(opps))
	for i, o := range opps {
		out[i] = o.ID
	}
	return out
}

func TestApplyFiltersMinSpread(t *testing.T) {
	got := Apply(testSnapshot(), Query{MinSpreadPercent: 10})
	if len(got) != 2 {
		t.Fatalf("expected 2 opportunities, got %v", ids(got))
	}
	for _, o := range got {
		if o.SpreadPercent < 10 {
			t.Errorf("opportunity %s below min spread", o.ID)
		}
	}
}

func TestApplyFiltersMinMatchScore(t *testing.T) {
	got := Apply(testSnapshot(), Query{MinMatchScore: 0.65})
	if len(got) != 2 {
		t.Fatalf("expected 2 opportunities, got %v", ids(got))
	}
}

func TestApplyFiltersVenue(t *testing.T) {
	got := Apply(testSnapshot(), Query{Venue: domain.VenueKalshi})
	if len(got) != 2 {
		t.Fatalf("expected 2 kalshi opportunities, got %v", ids(got))
	}
}

func TestApplyFiltersTitle(t *testing.T) {
	got := Apply(testSnapshot(), Query{Title: "BTC hit"})
	if len(got) != 3 {
		t.Fatalf("normalized substring should match all, got %v", ids(got))
	}
	if got = Apply(testSnapshot(), Query{Title: "rain in NYC"}); len(got) != 0 {
		t.Fatalf("expected no rain matches, got %v", ids(got))
	}
}

func TestApplySortOrders(t *testing.T) {
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortBySpreadPercent, []string{"b", "c", "a"}},
		{SortByProfitPotential, []string{"a", "c", "b"}},
	}
	for _, tt := range tests {
		got := ids(Apply(testSnapshot(), Query{SortBy: tt.key}))
		if len(got) != len(tt.want) {
			t.Fatalf("sort %s: got %v", tt.key, got)
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("sort %s: got %v, want %v", tt.key, got, tt.want)
				break
			}
		}
	}
}

func TestApplyPagination(t *testing.T) {
	snap := testSnapshot()

	page1 := Apply(snap, Query{Limit: 2})
	page2 := Apply(snap, Query{Limit: 2, Offset: 2})
	if len(page1) != 2 || len(page2) != 1 {
		t.Fatalf("pages = %d/%d, want 2/1", len(page1), len(page2))
	}
	if beyond := Apply(snap, Query{Offset: 10}); len(beyond) != 0 {
		t.Errorf("offset beyond end should be empty, got %v", ids(beyond))
	}
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr bool
	}{
		{"defaults", Query{}, false},
		{"valid", Query{MinSpreadPercent: 5, MinMatchScore: 0.5, SortBy: SortByAverageVolume, Limit: 10}, false},
		{"match score above one", Query{MinMatchScore: 1.5}, true},
		{"negative spread", Query{MinSpreadPercent: -1}, true},
		{"negative limit", Query{Limit: -1}, true},
		{"bad venue", Query{Venue: "nasdaq"}, true},
		{"bad sort", Query{SortBy: "spread_asc"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorePublishAndCurrent(t *testing.T) {
	s := NewStore()
	if got := s.Current(); got.Version != 0 || len(got.Opportunities) != 0 {
		t.Fatalf("fresh store should serve an empty snapshot, got %+v", got)
	}

	snap := testSnapshot()
	s.Publish(snap)
	got := s.Current()
	if got.Version != 7 || len(got.Opportunities) != 3 {
		t.Errorf("Current() = v%d/%d, want v7/3", got.Version, len(got.Opportunities))
	}
}
