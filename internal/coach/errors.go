package coach

import "fmt"

// ParseErrorKind classifies why a model reply could not be parsed.
type ParseErrorKind string

const (
	KindNoJSON          ParseErrorKind = "no-json"
	KindBadJSON         ParseErrorKind = "bad-json"
	KindMissingCoachSay ParseErrorKind = "missing-coach-say"
)

// ParseError is returned when a model reply does not satisfy the response
// contract. Callers recover with Recover; it is never shown to the learner.
type ParseError struct {
	Kind ParseErrorKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("coach response: %s", e.Kind)
	}
	return fmt.Sprintf("coach response: %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
