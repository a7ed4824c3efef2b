package match

import "testing"

func TestScoreIdentity(t *testing.T) {
	titles := []string{
		"Will BTC hit $100k by 2026?",
		"Fed cuts rates in March",
		"X wins the election",
	}
	for _, title := range titles {
		if got := Score(title, title); got != 1.0 {
			t.Errorf("Score(%q, same) = %v, want 1.0", title, got)
		}
	}
}

func TestScoreSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"Will BTC hit $100k by 2026?", "Bitcoin reaches $100,000 before 2026 — Yes"},
		{"Will it rain in NYC tomorrow", "Will the Fed cut rates in March"},
		{"Trump wins 2028", "Will Trump win the 2028 election?"},
		{"abc abc shared words", "abc shared"},
		{"", "nonempty title here"},
	}
	for _, p := range pairs {
		ab, ba := Score(p[0], p[1]), Score(p[1], p[0])
		if ab != ba {
			t.Errorf("Score not symmetric for %q / %q: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestScoreDegenerate(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"", ""},
		{"", "Will X win"},
		{"??", "Will X win"},
		{"a b c", "Will X win"}, // all tokens too short
	}
	for _, tt := range tests {
		if got := Score(tt.a, tt.b); got != 0 {
			t.Errorf("Score(%q, %q) = %v, want 0", tt.a, tt.b, got)
		}
	}
}

func TestScoreCrossVenuePhrasing(t *testing.T) {
	// Same event, venue-specific phrasing: must clear the clustering threshold.
	got := Score("Will BTC hit $100k by 2026?", "Bitcoin reaches $100,000 before 2026 — Yes")
	if got < 0.5 {
		t.Errorf("cross-venue same-event score = %v, want >= 0.5", got)
	}
}

func TestScoreUnrelatedEvents(t *testing.T) {
	got := Score("Will it rain in NYC tomorrow", "Will the Fed cut rates in March")
	if got >= 0.35 {
		t.Errorf("unrelated events score = %v, want < 0.35", got)
	}
}

func TestScoreSubstringBoost(t *testing.T) {
	got := Score("Trump wins election", "Will Trump wins election be resolved yes")
	if got < 0.8 {
		t.Errorf("substring-contained title score = %v, want >= 0.8", got)
	}
}

func TestScoreMoreSharedWordsNeverDecreases(t *testing.T) {
	base := "Will the Lakers win the NBA championship"
	less := "Lakers championship odds update"
	more := "Lakers win NBA championship odds update"

	sLess, sMore := Score(base, less), Score(base, more)
	if sMore < sLess {
		t.Errorf("adding shared words decreased score: %v -> %v", sLess, sMore)
	}
}

func TestScoreRange(t *testing.T) {
	pairs := [][2]string{
		{"a very long title with many many words repeated words", "words"},
		{"100k 100k 100k", "100000"},
		{"same same same", "same"},
	}
	for _, p := range pairs {
		got := Score(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Score(%q, %q) = %v, out of [0,1]", p[0], p[1], got)
		}
	}
}
