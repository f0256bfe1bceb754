package grading

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExpectType declares the shape of the answer a question anticipates.
// It selects the grading algorithm.
type ExpectType string

const (
	ExpectDigits   ExpectType = "digits"
	ExpectLetter   ExpectType = "letter"
	ExpectWord     ExpectType = "word"
	ExpectPhrase   ExpectType = "phrase"
	ExpectChoice   ExpectType = "choice"
	ExpectTrace    ExpectType = "trace"
	ExpectFreeform ExpectType = "freeform"
	ExpectNone     ExpectType = "none"
)

// AllExpectTypes returns every declared expect type.
func AllExpectTypes() []ExpectType {
	return []ExpectType{
		ExpectDigits, ExpectLetter, ExpectWord, ExpectPhrase,
		ExpectChoice, ExpectTrace, ExpectFreeform, ExpectNone,
	}
}

// ParseExpectType normalizes a model-supplied expect value. Unknown values
// are returned as-is so grading falls through to the generic comparison.
func ParseExpectType(s string) ExpectType {
	return ExpectType(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether t is one of the declared expect types.
func (t ExpectType) Known() bool {
	for _, k := range AllExpectTypes() {
		if t == k {
			return true
		}
	}
	return false
}

// Result is the verdict for one graded answer. Correct and Partial are
// never both true.
type Result struct {
	Correct  bool   `json:"correct"`
	Partial  bool   `json:"partial"`
	Feedback string `json:"feedback"`
}

// Answer is the expected answer of a question. The model may send either a
// single string or a list of strings; a list is only meaningful for
// freeform keyword grading.
type Answer []string

// Single returns an Answer holding one value.
func Single(s string) Answer {
	return Answer{s}
}

// String returns the first value, or "" for an empty answer.
func (a Answer) String() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

// Empty reports whether the answer holds no usable value.
func (a Answer) Empty() bool {
	for _, v := range a {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*a = nil
	case string:
		*a = Answer{v}
	case float64, bool:
		*a = Answer{fmt.Sprint(v)}
	case []any:
		out := make(Answer, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		*a = out
	default:
		return fmt.Errorf("unsupported answer value %s", string(data))
	}
	return nil
}
