// Package coach implements the dual-surface reply contract: every turn
// carries a short coaching line and a study board.
package coach

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/sunny/internal/board"
	"github.com/abhisek/sunny/internal/grading"
)

const (
	// MaxCoachSay is the longest coaching line, in runes.
	MaxCoachSay = 140
	ellipsis    = "..."

	// FallbackMessage is shown when the model could not be reached or
	// said nothing usable.
	FallbackMessage = "Oops! Something went wrong. Please try again!"
)

// Response is one parsed tutoring reply.
type Response struct {
	CoachSay      string             `json:"coach_say"`
	StudyBoard    board.Board        `json:"study_board"`
	Expect        grading.ExpectType `json:"expect,omitempty"`
	CorrectAnswer grading.Answer     `json:"correctAnswer,omitempty"`
	State         string             `json:"state,omitempty"`
	Difficulty    int                `json:"difficulty"`
	Subject       string             `json:"subject,omitempty"`
}

// IsQuestion reports whether the reply poses something that can be graded.
func (r Response) IsQuestion() bool {
	return r.Expect != "" && r.Expect != grading.ExpectNone && !r.CorrectAnswer.Empty()
}

// wireResponse tolerates the loose shapes models produce. The board and
// difficulty are decoded separately so a bad board does not sink the reply.
type wireResponse struct {
	CoachSay      string          `json:"coach_say"`
	StudyBoard    json.RawMessage `json:"study_board"`
	Expect        string          `json:"expect"`
	CorrectAnswer grading.Answer  `json:"correctAnswer"`
	State         string          `json:"state"`
	Difficulty    json.RawMessage `json:"difficulty"`
	Subject       string          `json:"subject"`
}

// ExtractJSON returns the first JSON object embedded in model text.
// Markdown code fences are stripped and the object spans from the first
// '{' to the last '}'.
func ExtractJSON(text string) (json.RawMessage, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end < start {
		return nil, &ParseError{Kind: KindNoJSON, Err: errors.New("no JSON object found in response")}
	}

	raw := json.RawMessage(cleaned[start : end+1])
	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, &ParseError{Kind: KindBadJSON, Err: err}
	}
	return raw, nil
}

// Decode parses an extracted object into a Response and validates it.
func Decode(raw json.RawMessage) (Response, error) {
	var w wireResponse
	if err := json.Unmarshal(raw, &w); err != nil {
		return Response{}, &ParseError{Kind: KindBadJSON, Err: err}
	}

	r := Response{
		CoachSay:      w.CoachSay,
		Expect:        grading.ParseExpectType(w.Expect),
		CorrectAnswer: w.CorrectAnswer,
		State:         strings.ToLower(strings.TrimSpace(w.State)),
		Difficulty:    lenientInt(w.Difficulty),
		Subject:       strings.ToLower(strings.TrimSpace(w.Subject)),
	}
	if !absent(w.StudyBoard) {
		// An undecodable board is treated as missing.
		if b, err := board.Decode(w.StudyBoard); err == nil {
			r.StudyBoard = b
		}
	}

	if err := Validate(&r); err != nil {
		return Response{}, err
	}
	return r, nil
}

// Validate enforces the reply contract in place. A missing coaching line
// is an error. A missing board becomes the neutral placeholder and a long
// coaching line is cut to MaxCoachSay runes.
func Validate(r *Response) error {
	if strings.TrimSpace(r.CoachSay) == "" {
		return &ParseError{Kind: KindMissingCoachSay, Err: errors.New("missing coach_say field")}
	}
	if r.StudyBoard.Visual == nil {
		r.StudyBoard = board.Placeholder()
	}
	r.CoachSay = Truncate(r.CoachSay)
	return nil
}

// Truncate shortens s to MaxCoachSay runes, ending in an ellipsis when cut.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxCoachSay {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxCoachSay-len(ellipsis)]) + ellipsis
}

// Parsed is the outcome of parsing one model reply: either a valid
// Response or the error that prevented it. Raw is kept for recovery.
type Parsed struct {
	Response Response
	Raw      string
	Err      error
}

// OK reports whether the reply satisfied the contract.
func (p Parsed) OK() bool {
	return p.Err == nil
}

// Parse extracts and validates a Response from model text.
func Parse(text string) Parsed {
	raw, err := ExtractJSON(text)
	if err != nil {
		return Parsed{Raw: text, Err: err}
	}
	r, err := Decode(raw)
	if err != nil {
		return Parsed{Raw: text, Err: err}
	}
	return Parsed{Response: r, Raw: text}
}

// Recover always yields a usable Response. A failed parse falls back to
// the raw text as the coaching line with a synthesized board. Either way
// the board is resolved for subject.
func Recover(p Parsed, subject string) Response {
	if p.OK() {
		return Resolve(p.Response, subject)
	}

	text := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(p.Raw, "```json", ""), "```", ""))
	if text == "" {
		text = FallbackMessage
	}
	return Response{
		CoachSay:   Truncate(text),
		StudyBoard: board.Synthesize(text, subject),
		Expect:     grading.ExpectNone,
		Subject:    subject,
	}
}

// Resolve replaces an absent or empty board with one synthesized from the
// coaching line. The reply's own subject wins over the session subject.
func Resolve(r Response, subject string) Response {
	if r.Subject == "" {
		r.Subject = subject
	}
	if r.StudyBoard.IsEmpty() {
		r.StudyBoard = board.Synthesize(r.CoachSay, r.Subject)
	}
	return r
}

// Interpret parses model text and recovers from any failure. The parse
// error, if any, is returned for logging only.
func Interpret(text, subject string) (Response, error) {
	p := Parse(text)
	return Recover(p, subject), p.Err
}

func absent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func lenientInt(raw json.RawMessage) int {
	if absent(raw) {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}
