// Package turnloop runs the lifecycle of one tutoring question: ask, wait
// for an answer, evaluate, remediate and retry, or advance.
package turnloop

import (
	"errors"
	"fmt"
	"sync"

	"github.com/abhisek/sunny/internal/board"
	"github.com/abhisek/sunny/internal/grading"
)

// State is a turn-loop state.
type State string

const (
	StateAsk     State = "ask"
	StateWait    State = "wait"
	StateEval    State = "eval"
	StateTeach   State = "teach"
	StateRetry   State = "retry"
	StateAdvance State = "advance"
)

// ErrInvalidTransition is returned when an operation is not valid in the
// current state. The loop is left unchanged.
var ErrInvalidTransition = errors.New("invalid turn transition")

// ErrStale is returned by a teach continuation whose question has since
// been replaced or reset.
var ErrStale = errors.New("stale turn")

// Question is one posed question. It is not modified once asked.
type Question struct {
	Prompt        string
	CorrectAnswer grading.Answer
	Expect        grading.ExpectType
	Board         board.Board
	Subject       string
	Level         int
}

// Transition describes one state change.
type Transition struct {
	From       State
	To         State
	Generation uint64
}

// TransitionFunc observes state changes. It is called after the loop's
// lock is released, in order.
type TransitionFunc func(Transition)

// Snapshot is a copy of the loop's observable fields.
type Snapshot struct {
	State      State
	Question   Question
	Answer     string
	Attempts   int
	Struggling bool
	LastResult *grading.Result
	Generation uint64
}

// Loop is the turn state machine. It is safe for concurrent use, though
// callers are expected to drive it from a single flow of control.
type Loop struct {
	mu         sync.Mutex
	state      State
	question   Question
	answer     string
	attempts   int
	struggling bool
	last       *grading.Result
	gen        uint64
	observers  []TransitionFunc
}

// New returns a loop in the ASK state with no question.
func New() *Loop {
	return &Loop{state: StateAsk}
}

// OnTransition registers an observer for every state change.
func (l *Loop) OnTransition(fn TransitionFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Ask poses q, clearing all per-question fields, and moves straight to
// WAIT. It is valid from any state and abandons the current question. The
// returned generation identifies q; see Current.
func (l *Loop) Ask(q Question) uint64 {
	l.mu.Lock()
	trs := l.askLocked(q)
	gen := l.gen
	obs := l.observersLocked()
	l.mu.Unlock()

	notify(obs, trs)
	return gen
}

func (l *Loop) askLocked(q Question) []Transition {
	l.gen++
	l.question = q
	l.answer = ""
	l.attempts = 0
	l.struggling = false
	l.last = nil

	var trs []Transition
	trs = append(trs, l.moveLocked(StateAsk))
	trs = append(trs, l.moveLocked(StateWait))
	return trs
}

// SubmitAnswer stores the learner's raw answer and moves to EVAL. A second
// submission before evaluation replaces the first.
func (l *Loop) SubmitAnswer(answer string) error {
	l.mu.Lock()
	if l.state != StateWait && l.state != StateEval {
		err := l.invalidLocked("submit")
		l.mu.Unlock()
		return err
	}
	l.answer = answer
	var trs []Transition
	if l.state == StateWait {
		trs = append(trs, l.moveLocked(StateEval))
	}
	obs := l.observersLocked()
	l.mu.Unlock()

	notify(obs, trs)
	return nil
}

// Evaluate grades answer and moves to ADVANCE when it is correct or to
// TEACH otherwise. Each call counts as one attempt.
func (l *Loop) Evaluate(answer string, correct grading.Answer, expect grading.ExpectType) (grading.Result, error) {
	l.mu.Lock()
	if l.state != StateEval {
		err := l.invalidLocked("evaluate")
		l.mu.Unlock()
		return grading.Result{}, err
	}

	res := grading.GradeAnswer(answer, correct, expect)
	l.answer = answer
	trs := l.recordLocked(res)
	obs := l.observersLocked()
	l.mu.Unlock()

	notify(obs, trs)
	return res, nil
}

// Judge records a verdict reached outside the grading engine, for turns
// whose question carried nothing to grade against. It counts as one
// attempt, like Evaluate.
func (l *Loop) Judge(res grading.Result) error {
	l.mu.Lock()
	if l.state != StateEval {
		err := l.invalidLocked("judge")
		l.mu.Unlock()
		return err
	}
	if res.Correct {
		res.Partial = false
	}
	trs := l.recordLocked(res)
	obs := l.observersLocked()
	l.mu.Unlock()

	notify(obs, trs)
	return nil
}

func (l *Loop) recordLocked(res grading.Result) []Transition {
	l.attempts++
	if l.attempts >= 2 || res.Partial {
		l.struggling = true
	}
	l.last = &res

	next := StateTeach
	if res.Correct {
		next = StateAdvance
	}
	return []Transition{l.moveLocked(next)}
}

// EvaluateSubmitted grades the submitted answer against the current
// question.
func (l *Loop) EvaluateSubmitted() (grading.Result, error) {
	l.mu.Lock()
	answer, q := l.answer, l.question
	l.mu.Unlock()
	return l.Evaluate(answer, q.CorrectAnswer, q.Expect)
}

// Teach is called in TEACH once remediation content is shown. The returned
// continuation moves the loop to RETRY. It fails with ErrStale if the
// question was replaced in the meantime.
func (l *Loop) Teach() (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateTeach {
		return nil, l.invalidLocked("teach")
	}
	gen := l.gen

	var once sync.Once
	return func() error {
		err := ErrStale
		once.Do(func() {
			l.mu.Lock()
			if l.gen != gen || l.state != StateTeach {
				l.mu.Unlock()
				return
			}
			trs := []Transition{l.moveLocked(StateRetry)}
			obs := l.observersLocked()
			l.mu.Unlock()

			notify(obs, trs)
			err = nil
		})
		return err
	}, nil
}

// Retry re-poses the question, or a simplified replacement when q is not
// nil, clears the answer and moves to WAIT. Attempts and the struggle flag
// carry over. Called from TEACH it passes through RETRY.
func (l *Loop) Retry(q *Question) error {
	l.mu.Lock()
	if l.state != StateRetry && l.state != StateTeach {
		err := l.invalidLocked("retry")
		l.mu.Unlock()
		return err
	}
	var trs []Transition
	if l.state == StateTeach {
		trs = append(trs, l.moveLocked(StateRetry))
	}
	if q != nil {
		l.question = *q
	}
	l.answer = ""
	trs = append(trs, l.moveLocked(StateWait))
	obs := l.observersLocked()
	l.mu.Unlock()

	notify(obs, trs)
	return nil
}

// Advance poses the next question after a correct answer.
func (l *Loop) Advance(next Question) (uint64, error) {
	l.mu.Lock()
	if l.state != StateAdvance {
		err := l.invalidLocked("advance")
		l.mu.Unlock()
		return 0, err
	}
	trs := l.askLocked(next)
	gen := l.gen
	obs := l.observersLocked()
	l.mu.Unlock()

	notify(obs, trs)
	return gen, nil
}

// Reset returns to ASK with every per-question field cleared. Learner
// progress is not touched.
func (l *Loop) Reset() {
	l.mu.Lock()
	l.gen++
	l.question = Question{}
	l.answer = ""
	l.attempts = 0
	l.struggling = false
	l.last = nil
	trs := []Transition{l.moveLocked(StateAsk)}
	obs := l.observersLocked()
	l.mu.Unlock()

	notify(obs, trs)
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Generation returns the identifier of the current question.
func (l *Loop) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Current reports whether gen still identifies the active question.
// Results of external calls made for an older generation should be dropped.
func (l *Loop) Current(gen uint64) bool {
	return l.Generation() == gen
}

// Snapshot returns a copy of the loop's fields.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := Snapshot{
		State:      l.state,
		Question:   l.question,
		Answer:     l.answer,
		Attempts:   l.attempts,
		Struggling: l.struggling,
		Generation: l.gen,
	}
	if l.last != nil {
		r := *l.last
		s.LastResult = &r
	}
	return s
}

func (l *Loop) moveLocked(to State) Transition {
	tr := Transition{From: l.state, To: to, Generation: l.gen}
	l.state = to
	return tr
}

func (l *Loop) invalidLocked(op string) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, op, l.state)
}

func (l *Loop) observersLocked() []TransitionFunc {
	if len(l.observers) == 0 {
		return nil
	}
	out := make([]TransitionFunc, len(l.observers))
	copy(out, l.observers)
	return out
}

func notify(obs []TransitionFunc, trs []Transition) {
	for _, tr := range trs {
		for _, fn := range obs {
			fn(tr)
		}
	}
}
