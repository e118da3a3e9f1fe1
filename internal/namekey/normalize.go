package namekey

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases, strips diacritics, and collapses whitespace so
// feed labels from different books compare equal.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return collapseWhitespace(s)
}

// Player extracts the player handle from an e-soccer label like
// "Barcelona (Kray)". Labels without parentheses normalize whole; real
// football fixtures have no per-player identity.
func Player(label string) string {
	open := strings.LastIndex(label, "(")
	end := strings.LastIndex(label, ")")
	if open >= 0 && end > open {
		return Normalize(label[open+1 : end])
	}
	return Normalize(label)
}

// Matchup builds an order-independent key for a pairing, so
// "A vs B" and "B vs A" learn into the same head-to-head row.
func Matchup(home, away string) string {
	h, a := Player(home), Player(away)
	if a < h {
		h, a = a, h
	}
	return h + " vs " + a
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) { // Mn = Mark, Nonspacing (combining accents)
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
