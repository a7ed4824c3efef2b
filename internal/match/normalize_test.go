package match

import (
	"reflect"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
	}{
		{"empty", "", ""},
		{"lowercases", "Will BTC Hit $100k?", "will btc hit 100k"},
		{"strips punctuation", "Bitcoin reaches $100,000 before 2026 — Yes", "bitcoin reaches 100000 before 2026 yes"},
		{"collapses whitespace", "  Fed   cuts \t rates  ", "fed cuts rates"},
		{"only punctuation", "?!—$", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTitle(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	titles := []string{
		"Will X win the 2026 election?",
		"BTC to $150k!!",
		"",
	}
	for _, title := range titles {
		once := NormalizeTitle(title)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Errorf("NormalizeTitle not idempotent for %q: %q vs %q", title, once, twice)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"drops short tokens", "will x win by 2026", []string{"will", "win", "2026"}},
		{"expands quantities", "btc hits 100k", []string{"bitcoin", "hits", "100000"}},
		{"expands millions", "volume tops 50m usd", []string{"volume", "tops", "50000000", "usd"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
