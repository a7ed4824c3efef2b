package engine

import (
	"strings"
	"testing"

	"github.com/predictarb/predictarb/internal/domain"
)

func TestBuildStrategy(t *testing.T) {
	summary, steps := BuildStrategy(
		domain.Quote{Venue: domain.VenuePolymarket, Price: 0.62},
		domain.Quote{Venue: domain.VenueKalshi, Price: 0.70},
	)

	if want := "Buy YES on polymarket at 62.0¢, sell/short on kalshi at 70.0¢"; summary != want {
		t.Errorf("summary = %q, want %q", summary, want)
	}
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if !strings.Contains(steps[0], "polymarket") {
		t.Errorf("first step should name the buy venue: %q", steps[0])
	}
	if !strings.Contains(steps[1], "kalshi") {
		t.Errorf("second step should name the sell venue: %q", steps[1])
	}
}
