package board

import (
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	defaultCount   = 5
	maxCount       = 10
	defaultSpell   = "CAT"
	textBoardRunes = 100
)

var (
	letterRe      = regexp.MustCompile(`(?i)\bletter\s+["'“]?([a-z])\b`)
	spellRe       = regexp.MustCompile(`(?i)\bspell\s+(?:the\s+word\s+)?["'“]?([a-z]+)`)
	additionRe    = regexp.MustCompile(`(\d+)\s*\+\s*(\d+)`)
	subtractionRe = regexp.MustCompile(`(\d+)\s*[-−]\s*(\d+)`)
	subtractCueRe = regexp.MustCompile(`(?i)\b(subtract|minus|take\s+away)\b`)
	countCueRe    = regexp.MustCompile(`(?i)\b(count|how\s+many)\b`)
	integerRe     = regexp.MustCompile(`\d+`)
)

// glyphKeywords is checked in order; the first keyword found picks the glyph.
var glyphKeywords = []struct {
	re    *regexp.Regexp
	glyph string
}{
	{regexp.MustCompile(`(?i)\bfrog`), "🐸"},
	{regexp.MustCompile(`(?i)\bapple`), "🍎"},
	{regexp.MustCompile(`(?i)\bstar`), "⭐"},
	{regexp.MustCompile(`(?i)\bdog`), "🐶"},
	{regexp.MustCompile(`(?i)\bcats?\b`), "🐱"},
	{regexp.MustCompile(`(?i)\bball`), "⚽"},
	{regexp.MustCompile(`(?i)\bheart`), "❤️"},
}

var spellStopwords = map[string]bool{
	"it": true, "this": true, "that": true, "these": true, "those": true,
	"a": true, "an": true, "word": true, "words": true,
}

// Synthesize builds a study board from a coaching line when the model did
// not provide a usable one. The result depends only on its inputs.
func Synthesize(text, subject string) Board {
	subject = strings.ToLower(strings.TrimSpace(subject))
	lower := strings.ToLower(text)

	switch {
	case subject == "reading" || strings.Contains(lower, "letter"):
		return New(Letter{Char: pickLetter(text)})
	case subject == "spelling" || strings.Contains(lower, "spell"):
		return New(Word{Text: pickSpellWord(text)})
	case subject == "math":
		if v, ok := mathVisual(text); ok {
			return New(v)
		}
	}
	return New(Text{Body: truncateRunes(strings.TrimSpace(text), textBoardRunes)})
}

func pickLetter(text string) string {
	if m := letterRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return string(rune('A' + h.Sum32()%26))
}

func pickSpellWord(text string) string {
	if m := spellRe.FindStringSubmatch(text); m != nil && !spellStopwords[strings.ToLower(m[1])] {
		return strings.ToUpper(m[1])
	}
	return defaultSpell
}

func mathVisual(text string) (Visual, bool) {
	if m := additionRe.FindStringSubmatch(text); m != nil {
		return AdditionEmoji{Count1: atoi(m[1]), Count2: atoi(m[2]), Glyph: defaultSumGlyph}, true
	}
	if m := subtractionRe.FindStringSubmatch(text); m != nil {
		return SubtractionEmoji{Count1: atoi(m[1]), Count2: atoi(m[2]), Glyph: defaultSumGlyph}, true
	}
	if subtractCueRe.MatchString(text) {
		return SubtractionEmoji{Count1: 5, Count2: 2, Glyph: defaultSumGlyph}, true
	}
	if countCueRe.MatchString(text) {
		return Emoji{Count: pickCount(text), Glyph: pickGlyph(text)}, true
	}
	return nil, false
}

func pickCount(text string) int {
	n := defaultCount
	if m := integerRe.FindString(text); m != "" {
		n = atoi(m)
	}
	if n <= 0 {
		n = defaultCount
	}
	if n > maxCount {
		n = maxCount
	}
	return n
}

func pickGlyph(text string) string {
	for _, k := range glyphKeywords {
		if k.re.MatchString(text) {
			return k.glyph
		}
	}
	return defaultEmojiGlyph
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
