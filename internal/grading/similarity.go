package grading

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)), measured
// in runes. Two empty strings are identical.
func Similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.Distance(a, b, nil)
	return 1 - float64(dist)/float64(maxLen)
}

// TokenOverlap splits both strings on whitespace (case-insensitive) and
// returns the number of answer tokens present in the expected tokens,
// divided by the longer token count.
func TokenOverlap(answer, expected string) float64 {
	got := strings.Fields(strings.ToLower(answer))
	want := strings.Fields(strings.ToLower(expected))

	maxLen := max(len(got), len(want))
	if maxLen == 0 {
		return 0
	}

	wantSet := make(map[string]bool, len(want))
	for _, w := range want {
		wantSet[w] = true
	}

	matches := 0
	for _, g := range got {
		if wantSet[g] {
			matches++
		}
	}
	return float64(matches) / float64(maxLen)
}

var phoneticFold = strings.NewReplacer(
	"ph", "f",
	"ck", "k",
	"c", "k",
	"q", "k",
	"z", "s",
)

// phoneticKey folds letters that sound alike in early spelling ("kat" and
// "cat") and collapses doubled letters. Input is lowercase a-z.
func phoneticKey(s string) string {
	folded := phoneticFold.Replace(s)
	var b strings.Builder
	var prev rune
	for _, r := range folded {
		if r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
