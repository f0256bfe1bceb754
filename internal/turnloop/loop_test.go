package turnloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sunny/internal/grading"
)

func mathQuestion() Question {
	return Question{
		Prompt:        "What is 9 + 6?",
		CorrectAnswer: grading.Single("15"),
		Expect:        grading.ExpectDigits,
		Subject:       "math",
	}
}

func TestAsk_MovesToWait(t *testing.T) {
	l := New()
	var seen []Transition
	l.OnTransition(func(tr Transition) { seen = append(seen, tr) })

	gen := l.Ask(mathQuestion())

	assert.Equal(t, StateWait, l.State())
	require.Len(t, seen, 2)
	assert.Equal(t, StateAsk, seen[0].To)
	assert.Equal(t, StateWait, seen[1].To)
	assert.Equal(t, gen, seen[1].Generation)
}

func TestCorrectAnswerAdvances(t *testing.T) {
	l := New()
	var states []State
	l.OnTransition(func(tr Transition) { states = append(states, tr.To) })

	q := mathQuestion()
	l.Ask(q)
	require.NoError(t, l.SubmitAnswer("15"))
	res, err := l.Evaluate("15", q.CorrectAnswer, q.Expect)
	require.NoError(t, err)

	assert.True(t, res.Correct)
	assert.Equal(t, StateAdvance, l.State())
	assert.NotContains(t, states, StateTeach)
}

func TestTwoWrongAnswersSetStruggling(t *testing.T) {
	l := New()
	q := mathQuestion()
	l.Ask(q)

	require.NoError(t, l.SubmitAnswer("3"))
	_, err := l.EvaluateSubmitted()
	require.NoError(t, err)
	assert.False(t, l.Snapshot().Struggling)

	require.NoError(t, l.Retry(nil))
	require.NoError(t, l.SubmitAnswer("4"))
	_, err = l.EvaluateSubmitted()
	require.NoError(t, err)

	snap := l.Snapshot()
	assert.Equal(t, 2, snap.Attempts)
	assert.True(t, snap.Struggling)
	assert.Equal(t, StateTeach, snap.State)
}

func TestPartialSetsStruggling(t *testing.T) {
	l := New()
	q := mathQuestion()
	l.Ask(q)
	require.NoError(t, l.SubmitAnswer("14"))
	res, err := l.EvaluateSubmitted()
	require.NoError(t, err)

	assert.True(t, res.Partial)
	assert.True(t, l.Snapshot().Struggling)
	assert.Equal(t, 1, l.Snapshot().Attempts)
}

func TestTeachRetryLoop(t *testing.T) {
	l := New()
	q := mathQuestion()
	l.Ask(q)
	require.NoError(t, l.SubmitAnswer("14"))
	_, err := l.EvaluateSubmitted()
	require.NoError(t, err)
	require.Equal(t, StateTeach, l.State())

	cont, err := l.Teach()
	require.NoError(t, err)
	require.NoError(t, cont())
	assert.Equal(t, StateRetry, l.State())
	assert.ErrorIs(t, cont(), ErrStale)

	simpler := q
	simpler.Prompt = "What is 10 + 5?"
	require.NoError(t, l.Retry(&simpler))

	snap := l.Snapshot()
	assert.Equal(t, StateWait, snap.State)
	assert.Equal(t, "What is 10 + 5?", snap.Question.Prompt)
	assert.Empty(t, snap.Answer)
	assert.True(t, snap.Struggling)

	require.NoError(t, l.SubmitAnswer("15"))
	res, err := l.EvaluateSubmitted()
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, StateAdvance, l.State())
	assert.Equal(t, 2, l.Snapshot().Attempts)

	next := mathQuestion()
	next.Prompt = "What is 2 + 2?"
	_, err = l.Advance(next)
	require.NoError(t, err)
	snap = l.Snapshot()
	assert.Equal(t, StateWait, snap.State)
	assert.Zero(t, snap.Attempts)
	assert.False(t, snap.Struggling)
	assert.Nil(t, snap.LastResult)
}

func TestInvalidTransitions(t *testing.T) {
	l := New()

	_, err := l.Evaluate("1", grading.Single("1"), grading.ExpectDigits)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, l.SubmitAnswer("1"), ErrInvalidTransition)
	_, err = l.Teach()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, l.Retry(nil), ErrInvalidTransition)
	_, err = l.Advance(mathQuestion())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateAsk, l.State())

	l.Ask(mathQuestion())
	_, err = l.EvaluateSubmitted()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateWait, l.State())
}

func TestResubmitIsLastWriteWins(t *testing.T) {
	l := New()
	l.Ask(mathQuestion())
	require.NoError(t, l.SubmitAnswer("3"))
	require.NoError(t, l.SubmitAnswer("15"))
	assert.Equal(t, StateEval, l.State())

	res, err := l.EvaluateSubmitted()
	require.NoError(t, err)
	assert.True(t, res.Correct)
}

func TestMalformedQuestionFailsSafe(t *testing.T) {
	l := New()
	l.Ask(Question{Prompt: "???"})
	require.NoError(t, l.SubmitAnswer("anything"))
	res, err := l.EvaluateSubmitted()
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, StateTeach, l.State())
}

func TestResetAndGenerations(t *testing.T) {
	l := New()
	gen := l.Ask(mathQuestion())
	require.NoError(t, l.SubmitAnswer("14"))
	_, err := l.EvaluateSubmitted()
	require.NoError(t, err)
	cont, err := l.Teach()
	require.NoError(t, err)

	assert.True(t, l.Current(gen))
	l.Reset()
	assert.False(t, l.Current(gen))

	assert.ErrorIs(t, cont(), ErrStale)
	snap := l.Snapshot()
	assert.Equal(t, StateAsk, snap.State)
	assert.Zero(t, snap.Attempts)
	assert.False(t, snap.Struggling)
	assert.Empty(t, snap.Question.Prompt)

	gen2 := l.Ask(mathQuestion())
	assert.Greater(t, gen2, gen)
}

func TestJudgeRecordsExternalVerdict(t *testing.T) {
	l := New()
	l.Ask(Question{Prompt: "Tell me about your day", Expect: grading.ExpectNone})

	require.ErrorIs(t, l.Judge(grading.Result{Correct: true}), ErrInvalidTransition)

	require.NoError(t, l.SubmitAnswer("I went to the zoo"))
	require.NoError(t, l.Judge(grading.Result{Correct: false}))
	assert.Equal(t, StateTeach, l.State())

	require.NoError(t, l.Retry(nil))
	require.NoError(t, l.SubmitAnswer("I saw a lion"))
	require.NoError(t, l.Judge(grading.Result{Correct: true, Partial: true}))

	snap := l.Snapshot()
	assert.Equal(t, StateAdvance, snap.State)
	assert.Equal(t, 2, snap.Attempts)
	assert.True(t, snap.Struggling)
	require.NotNil(t, snap.LastResult)
	assert.False(t, snap.LastResult.Partial, "correct implies not partial")
}
