package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sunny/internal/board"
	"github.com/abhisek/sunny/internal/coach"
	"github.com/abhisek/sunny/internal/llm"
	"github.com/abhisek/sunny/internal/progress"
	"github.com/abhisek/sunny/internal/store"
	"github.com/abhisek/sunny/internal/tutor"
	"github.com/abhisek/sunny/internal/turnloop"
)

const (
	leavesQuestion = `{"coach_say":"Why do leaves fall in autumn?","study_board":{"visualType":"text","visual":"🍂"},"expect":"none","state":"ask","subject":"science"}`
	beesQuestion   = `{"coach_say":"Yes! What do bees make?","study_board":{"visualType":"text","visual":"🐝"},"expect":"none","state":"advance","subject":"science"}`
	barkQuestion   = `{"coach_say":"Which one barks?","study_board":{"visualType":"choice","visual":["Cat","Dog"]},"expect":"choice","correctAnswer":"Dog","state":"ask","subject":"science"}`
	meowHint       = `{"coach_say":"Cats say meow. Try again!","study_board":{"visualType":"text","visual":"🐱 meow"},"expect":"none","state":"teach","subject":"science"}`
	fishQuestion   = `{"coach_say":"Great! Which one swims?","study_board":{"visualType":"choice","visual":["Fish","Bird"]},"expect":"choice","correctAnswer":"Fish","state":"ask","subject":"science"}`
)

var errModelDown = errors.New("model down")

func newTestSession(t *testing.T, responses ...llm.MockResponse) (*session, *llm.MockProvider) {
	t.Helper()
	log, _ := test.NewNullLogger()
	mock := llm.NewMockProvider(responses...)
	svc := tutor.NewService(mock, progress.NewRepo(store.NewMemoryKV(), progress.DefaultCatalog()), tutor.Config{}, log)
	return &session{svc: svc, renderer: board.NewTerminalRenderer()}, mock
}

func TestSessionHandle(t *testing.T) {
	tests := []struct {
		name      string
		script    []llm.MockResponse
		lines     []string
		wantErr   error
		wantState turnloop.State
		wantOK    bool
		calls     int
		attempts  int
	}{
		{
			name: "failed judgement is retried with enter",
			script: []llm.MockResponse{
				llm.TextResponse(leavesQuestion),
				{Err: errModelDown},
				llm.TextResponse(beesQuestion),
			},
			lines:     []string{"less sunlight", ""},
			wantState: turnloop.StateWait,
			wantOK:    true,
			calls:     3,
			attempts:  1,
		},
		{
			name: "new answer after failed judgement is judged",
			script: []llm.MockResponse{
				llm.TextResponse(leavesQuestion),
				{Err: errModelDown},
				llm.TextResponse(beesQuestion),
				llm.TextResponse(beesQuestion),
				llm.TextResponse(beesQuestion),
			},
			lines:     []string{"less sunlight", "it gets cold", "honey"},
			wantState: turnloop.StateWait,
			wantOK:    true,
			calls:     4,
			attempts:  2,
		},
		{
			name: "choice after a text hint uses the question's options",
			script: []llm.MockResponse{
				llm.TextResponse(barkQuestion),
				llm.TextResponse(meowHint),
				llm.TextResponse(fishQuestion),
			},
			lines:     []string{"1", "2"},
			wantState: turnloop.StateWait,
			wantOK:    true,
			calls:     3,
			attempts:  2,
		},
		{
			name: "choice by option text",
			script: []llm.MockResponse{
				llm.TextResponse(barkQuestion),
				llm.TextResponse(fishQuestion),
			},
			lines:     []string{"dog"},
			wantState: turnloop.StateWait,
			wantOK:    true,
			calls:     2,
			attempts:  1,
		},
		{
			name: "number outside the options is rejected",
			script: []llm.MockResponse{
				llm.TextResponse(barkQuestion),
			},
			lines:     []string{"3"},
			wantErr:   tutor.ErrNotAChoice,
			wantState: turnloop.StateWait,
			calls:     1,
		},
		{
			name: "skip asks a new question",
			script: []llm.MockResponse{
				llm.TextResponse(barkQuestion),
				llm.TextResponse(fishQuestion),
			},
			lines:     []string{":skip"},
			wantState: turnloop.StateWait,
			calls:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newTestSession(t, tt.script...)
			ctx := context.Background()
			_, err := s.svc.Start(ctx, coach.Learner{Name: "Ava", Age: 8}, "science")
			require.NoError(t, err)

			var turn tutor.Turn
			for _, line := range tt.lines {
				turn, err = s.handle(ctx, line)
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantState, turn.State)
				assert.Equal(t, tt.wantOK, turn.Correct())
			}
			assert.Equal(t, tt.wantState, s.svc.Loop().State())
			assert.Equal(t, tt.calls, mock.CallCount())
			assert.Equal(t, tt.attempts, s.svc.Profile().Subjects["science"].TotalAttempts)
		})
	}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// playTurn executes a tutor command and feeds its result back to the model.
func playTurn(t *testing.T, m *learnModel, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(turnMsg)
	require.True(t, ok, "expected a turn message")
	m.Update(msg)
}

func TestLearnModel_AsksNameThenAge(t *testing.T) {
	s, _ := newTestSession(t, llm.TextResponse(barkQuestion))
	m := newLearnModel(context.Background(), s, coach.Learner{}, "science")
	assert.Contains(t, m.content(), "What's your name?")

	m.input.Model.SetValue("Mia")
	_, cmd := m.Update(specialKey(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, phaseAge, m.phase)

	m.input.Model.SetValue("old")
	m.Update(specialKey(tea.KeyEnter))
	assert.Equal(t, phaseAge, m.phase)
	assert.Contains(t, m.content(), "Type your age")

	m.input.Model.SetValue("6")
	_, cmd = m.Update(specialKey(tea.KeyEnter))
	assert.True(t, m.busy)
	playTurn(t, m, cmd)

	assert.False(t, m.busy)
	assert.Equal(t, "Mia", m.learner.Name)
	assert.Equal(t, 6, m.learner.Age)
	require.NotNil(t, m.choices)
	view := m.content()
	assert.Contains(t, view, "Which one barks?")
	assert.Contains(t, view, "2)  Dog")
}

func TestLearnModel_HintKeepsChoiceList(t *testing.T) {
	s, mock := newTestSession(t,
		llm.TextResponse(barkQuestion),
		llm.TextResponse(meowHint),
		llm.TextResponse(fishQuestion),
	)
	m := newLearnModel(context.Background(), s, coach.Learner{Name: "Mia", Age: 6}, "science")
	playTurn(t, m, m.Init())

	_, cmd := m.Update(keyPress('1'))
	playTurn(t, m, cmd)
	assert.False(t, m.turn.Correct())
	require.NotNil(t, m.choices, "options stay selectable under the hint")
	view := m.content()
	assert.Contains(t, view, "Cats say meow")
	assert.Contains(t, view, "🐱 meow")
	assert.Contains(t, view, "1)  Cat")

	_, cmd = m.Update(specialKey(tea.KeyDown))
	assert.Nil(t, cmd)
	_, cmd = m.Update(specialKey(tea.KeyEnter))
	playTurn(t, m, cmd)
	assert.True(t, m.turn.Correct())
	assert.Equal(t, 3, mock.CallCount())
	assert.Contains(t, m.content(), "Which one swims?")
}

func TestLearnModel_FailedJudgementRetriesOnEnter(t *testing.T) {
	s, mock := newTestSession(t,
		llm.TextResponse(leavesQuestion),
		llm.MockResponse{Err: errModelDown},
		llm.TextResponse(beesQuestion),
	)
	m := newLearnModel(context.Background(), s, coach.Learner{Name: "Ava", Age: 9}, "science")
	playTurn(t, m, m.Init())
	assert.Nil(t, m.choices)

	m.input.Model.SetValue("less sunlight")
	_, cmd := m.Update(specialKey(tea.KeyEnter))
	playTurn(t, m, cmd)
	assert.ErrorIs(t, m.err, errModelDown)
	assert.Contains(t, m.content(), "Press enter to try again.")

	_, cmd = m.Update(specialKey(tea.KeyEnter))
	playTurn(t, m, cmd)
	assert.NoError(t, m.err)
	assert.True(t, m.turn.Correct())
	assert.Equal(t, 3, mock.CallCount())
	assert.Equal(t, turnloop.StateWait, s.svc.Loop().State())
}

func TestLearnModel_EmptyEnterInWaitDoesNothing(t *testing.T) {
	s, mock := newTestSession(t, llm.TextResponse(leavesQuestion))
	m := newLearnModel(context.Background(), s, coach.Learner{Name: "Ava", Age: 9}, "science")
	playTurn(t, m, m.Init())

	_, cmd := m.Update(specialKey(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, 1, mock.CallCount())
}

func TestLearnModel_IgnoresKeysWhileBusy(t *testing.T) {
	s, _ := newTestSession(t, llm.TextResponse(barkQuestion))
	m := newLearnModel(context.Background(), s, coach.Learner{Name: "Mia", Age: 6}, "science")
	cmd := m.Init()
	require.True(t, m.busy)

	_, next := m.Update(keyPress('1'))
	assert.Nil(t, next)
	assert.Contains(t, m.content(), "Thinking")
	playTurn(t, m, cmd)
}

func TestLearnModel_Commands(t *testing.T) {
	s, _ := newTestSession(t, llm.TextResponse(leavesQuestion))
	m := newLearnModel(context.Background(), s, coach.Learner{Name: "Ava", Age: 9}, "science")
	playTurn(t, m, m.Init())

	m.input.Model.SetValue(":stats")
	m.Update(specialKey(tea.KeyEnter))
	assert.True(t, m.showStats)
	assert.True(t, strings.Contains(m.content(), "Ava, age 9"))

	m.input.Model.SetValue(":quit")
	_, cmd := m.Update(specialKey(tea.KeyEnter))
	assert.NotNil(t, cmd)
}

func TestLearnModel_IncompatibleProfileQuits(t *testing.T) {
	s, _ := newTestSession(t)
	m := newLearnModel(context.Background(), s, coach.Learner{Name: "Mia", Age: 6}, "math")

	_, cmd := m.Update(turnMsg{Err: progress.ErrIncompatibleProfile})
	assert.NotNil(t, cmd)
	assert.ErrorIs(t, m.fatal, progress.ErrIncompatibleProfile)
}
