// Package similarity measures how close a student's answer is to a model
// answer using Ratcliff/Obershelp sequence matching over runes.
package similarity

import "github.com/pmezard/go-difflib/difflib"

// Ratio returns 2*M / (len(a)+len(b)) where M is the total length of the
// matching blocks found by the longest-matching-block algorithm. Lengths are
// counted in runes. Text is compared raw: no case folding, no whitespace or
// punctuation normalization.
//
// Ratio("", "") is 1.0: two empty answers are a degenerate full match.
//
// The pair is put in a fixed order before matching because tie-breaking in
// the block search depends on argument order; this makes Ratio symmetric.
// The matcher's popular-element heuristic is disabled, otherwise characters
// that repeat often in long answers would be ignored and Ratio(a, a) could
// drop below 1.
func Ratio(a, b string) float64 {
	if a > b {
		a, b = b, a
	}
	m := difflib.NewMatcherWithJunk(splitRunes(a), splitRunes(b), false, nil)
	return m.Ratio()
}

// Percent is Ratio scaled to 0–100.
func Percent(a, b string) float64 {
	return Ratio(a, b) * 100
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
