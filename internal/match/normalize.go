// Package match implements title normalization, fuzzy similarity scoring, and
// cross-venue clustering of prediction-market listings. It is the part of the
// engine that decides whether two listings on different venues refer to the
// same underlying question.
package match

import (
	"strconv"
	"strings"
	"unicode"
)

// minTokenLen is the shortest token that carries signal; shorter tokens
// ("in", "by", "a") are dropped before scoring.
const minTokenLen = 3

// tokenAliases maps venue-specific spellings to a canonical form so that
// "BTC" on one venue matches "Bitcoin" on another.
var tokenAliases = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"sol":  "solana",
	"doge": "dogecoin",
	"pres": "president",
}

// NormalizeTitle canonicalizes a market title for comparison: lower-cased,
// non-alphanumeric runes dropped, whitespace runs collapsed to one space,
// leading and trailing space trimmed. It is a pure, total function; empty
// input yields the empty string.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	lastSpace := true // swallow leading whitespace
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Tokenize splits a normalized title into significant tokens: whitespace
// split, tokens shorter than three runes dropped, quantity suffixes expanded
// ("100k" -> "100000"), and known aliases canonicalized.
func Tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLen {
			continue
		}
		f = expandQuantity(f)
		if alias, ok := tokenAliases[f]; ok {
			f = alias
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// expandQuantity rewrites shorthand numeric tokens like "100k" or "1m" to
// their full digit form so they compare equal to "100000" / "1000000".
func expandQuantity(tok string) string {
	last := tok[len(tok)-1]
	var mult int64
	switch last {
	case 'k':
		mult = 1_000
	case 'm':
		mult = 1_000_000
	case 'b':
		mult = 1_000_000_000
	default:
		return tok
	}
	n, err := strconv.ParseInt(tok[:len(tok)-1], 10, 64)
	if err != nil {
		return tok
	}
	return strconv.FormatInt(n*mult, 10)
}
