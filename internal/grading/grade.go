package grading

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Feedback strings shown to the learner.
const (
	FeedbackEmpty       = "please answer"
	FeedbackNotNumber   = "please enter a number"
	FeedbackTryAgain    = "Try again"
	FeedbackPerfect     = "Perfect!"
	FeedbackVeryClose   = "very close"
	FeedbackGreatJob    = "Great job!"
	FeedbackNotQuite    = "Not quite"
	FeedbackSpelling    = "Perfect spelling!"
	FeedbackCheckSpell  = "Close! Check the spelling"
	FeedbackGreat       = "Great!"
	FeedbackAlmost      = "Almost there!"
	FeedbackCorrect     = "Correct!"
	FeedbackWrongChoice = "Not the right choice"
	FeedbackExcellent   = "Excellent answer!"
	FeedbackMoreDetail  = "Good start, add more details"
	FeedbackMainPoints  = "Try to include the main points"
)

// Thresholds for the partial-credit tiers.
const (
	DigitsTolerance      = 0.10
	WordPartialThreshold = 0.70
	PhraseCorrectAbove   = 0.80
	PhrasePartialAbove   = 0.50
	FreeformPartialAbove = 0.5
)

// strategy grades a trimmed, non-empty answer against the expected answer.
type strategy func(answer string, correct Answer) Result

var strategies = map[ExpectType]strategy{
	ExpectDigits:   gradeDigits,
	ExpectLetter:   gradeLetter,
	ExpectWord:     gradeWord,
	ExpectPhrase:   gradePhrase,
	ExpectChoice:   gradeChoice,
	ExpectFreeform: gradeFreeform,
}

// Grade compares a learner's raw answer with a single expected answer.
func Grade(raw, correct string, expect ExpectType) Result {
	return GradeAnswer(raw, Single(correct), expect)
}

// GradeAnswer compares a learner's raw answer with the expected answer under
// the given expect type. It is pure: identical inputs give identical results.
//
// An empty answer is never correct, whatever the type. Types without a
// dedicated strategy (trace, none, unrecognized) use a case-insensitive
// exact comparison. A missing expected answer grades as incorrect.
func GradeAnswer(raw string, correct Answer, expect ExpectType) Result {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return Result{Feedback: FeedbackEmpty}
	}
	if correct.Empty() {
		return Result{Feedback: FeedbackTryAgain}
	}

	if s, ok := strategies[expect]; ok {
		return s(answer, correct)
	}
	return gradeGeneric(answer, correct)
}

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]`)
	numericPrefix = regexp.MustCompile(`^-?(\d+(\.\d+)?|\.\d+)`)
)

// gradeDigits parses both sides as numbers after stripping everything but
// digits, sign and decimal point.
func gradeDigits(answer string, correct Answer) Result {
	got, ok := parseLooseFloat(answer)
	if !ok {
		return Result{Feedback: FeedbackNotNumber}
	}
	want, ok := parseLooseFloat(correct.String())
	if !ok {
		return Result{Feedback: FeedbackTryAgain}
	}

	if got == want {
		return Result{Correct: true, Feedback: FeedbackPerfect}
	}

	// Relative to the expected value; a zero target has no close band.
	if want != 0 && math.Abs(got-want)/math.Abs(want) < DigitsTolerance {
		return Result{Partial: true, Feedback: FeedbackVeryClose}
	}
	return Result{Feedback: FeedbackTryAgain}
}

// parseLooseFloat reads the longest number at the start of s once
// everything but digits, sign and decimal point is gone, so "3.5.2" is 3.5.
func parseLooseFloat(s string) (float64, bool) {
	num := numericPrefix.FindString(nonNumeric.ReplaceAllString(s, ""))
	if num == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func gradeLetter(answer string, correct Answer) Result {
	if strings.EqualFold(answer, strings.TrimSpace(correct.String())) {
		return Result{Correct: true, Feedback: FeedbackGreatJob}
	}
	return Result{Feedback: FeedbackNotQuite}
}

var nonAlpha = regexp.MustCompile(`[^a-z]`)

func gradeWord(answer string, correct Answer) Result {
	got := nonAlpha.ReplaceAllString(strings.ToLower(answer), "")
	want := nonAlpha.ReplaceAllString(strings.ToLower(correct.String()), "")

	if got == want {
		return Result{Correct: true, Feedback: FeedbackSpelling}
	}
	// Sound-alike spellings ("kwik", "fone") earn partial credit only.
	sim := max(Similarity(got, want), Similarity(phoneticKey(got), phoneticKey(want)))
	if sim > WordPartialThreshold {
		return Result{Partial: true, Feedback: FeedbackCheckSpell}
	}
	return Result{Feedback: FeedbackTryAgain}
}

func gradePhrase(answer string, correct Answer) Result {
	sim := TokenOverlap(answer, correct.String())
	switch {
	case sim > PhraseCorrectAbove:
		return Result{Correct: true, Feedback: FeedbackGreat}
	case sim > PhrasePartialAbove:
		return Result{Partial: true, Feedback: FeedbackAlmost}
	default:
		return Result{Feedback: FeedbackTryAgain}
	}
}

func gradeChoice(answer string, correct Answer) Result {
	if answer == strings.TrimSpace(correct.String()) {
		return Result{Correct: true, Feedback: FeedbackCorrect}
	}
	return Result{Feedback: FeedbackWrongChoice}
}

// gradeFreeform treats every expected value as a required keyword.
func gradeFreeform(answer string, keywords Answer) Result {
	lower := strings.ToLower(answer)

	var total, found int
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		total++
		if strings.Contains(lower, k) {
			found++
		}
	}

	score := float64(found) / float64(total)
	switch {
	case score == 1:
		return Result{Correct: true, Feedback: FeedbackExcellent}
	case score > FreeformPartialAbove:
		return Result{Partial: true, Feedback: FeedbackMoreDetail}
	default:
		return Result{Feedback: FeedbackMainPoints}
	}
}

func gradeGeneric(answer string, correct Answer) Result {
	if strings.EqualFold(answer, strings.TrimSpace(correct.String())) {
		return Result{Correct: true, Feedback: FeedbackCorrect}
	}
	return Result{Feedback: FeedbackTryAgain}
}
