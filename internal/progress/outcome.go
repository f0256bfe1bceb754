package progress

import (
	"regexp"
	"strings"
)

// StateAdvance is the structured response state that marks a correct turn.
const StateAdvance = "advance"

var (
	positiveRe = regexp.MustCompile(`(?i)\b(correct|great job|excellent|well done|you got it)\b`)
	negativeRe = regexp.MustCompile(`(?i)\b(incorrect|not correct|not quite)\b`)
)

// InferCorrect guesses from free model text whether the learner answered
// correctly. It is only a fallback for replies that failed to parse.
func InferCorrect(text string) bool {
	if negativeRe.MatchString(text) {
		return false
	}
	return positiveRe.MatchString(text)
}

// Outcome decides correctness for leveling. A structured state is
// authoritative; raw text is consulted only when there is none.
func Outcome(state, raw string) bool {
	if s := strings.ToLower(strings.TrimSpace(state)); s != "" {
		return s == StateAdvance
	}
	return InferCorrect(raw)
}
