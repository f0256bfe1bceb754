package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/sunny/internal/board"
	"github.com/abhisek/sunny/internal/coach"
	"github.com/abhisek/sunny/internal/llm"
	"github.com/abhisek/sunny/internal/progress"
	"github.com/abhisek/sunny/internal/store"
	"github.com/abhisek/sunny/internal/tutor"
	"github.com/abhisek/sunny/internal/turnloop"
	"github.com/abhisek/sunny/internal/ui/components"
	"github.com/abhisek/sunny/internal/ui/theme"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Start a tutoring session in the terminal",
	Long: "Start a tutoring session. Type an answer and press enter.\n" +
		"On a choice board, pick with the arrow keys or the option number.\n" +
		"Commands: :skip, :stats, :quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		st, err := openStores(e)
		if err != nil {
			return err
		}
		defer st.Close()

		provider, err := newProvider(ctx, e, st.local.EventRepo())
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		age, _ := cmd.Flags().GetInt("age")
		subject, _ := cmd.Flags().GetString("subject")

		svc := tutor.NewService(provider, progress.NewRepo(st.kv, progress.DefaultCatalog()), tutorConfig(e), e.log)
		if v := tutor.NewCommandVoice(e.cfg.Tutor.Voice); v != nil {
			svc.SetVoice(v)
		}
		defer svc.Close()

		s := &session{svc: svc, renderer: board.NewTerminalRenderer()}
		m := newLearnModel(ctx, s, coach.Learner{Name: strings.TrimSpace(name), Age: age}, subject)

		p := tea.NewProgram(m,
			tea.WithContext(ctx),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		)
		final, err := p.Run()
		if err != nil {
			return err
		}
		e.log.WithField("session", svc.SessionID()).Info("tutoring session ended")
		if lm, ok := final.(*learnModel); ok && lm.fatal != nil {
			return lm.fatal
		}
		return nil
	},
}

func init() {
	learnCmd.Flags().StringP("name", "n", "", "Learner name")
	learnCmd.Flags().IntP("age", "a", 0, "Learner age (4-18)")
	learnCmd.Flags().StringP("subject", "s", "math", "Subject: math, reading, spelling or science")
}

// session plays one line of learner input against the tutor.
type session struct {
	svc      *tutor.Service
	renderer *board.TerminalRenderer
}

// handle plays one submitted line. After a failed model call, an empty
// line repeats the step that failed; a new answer while the last one is
// still being judged replaces it. On a choice board the input is matched
// against the question's options, whatever board the last hint showed.
func (s *session) handle(ctx context.Context, line string) (tutor.Turn, error) {
	line = strings.TrimSpace(line)
	if line == ":skip" {
		return s.svc.Skip(ctx)
	}

	snap := s.svc.Loop().Snapshot()
	switch snap.State {
	case turnloop.StateWait:
	case turnloop.StateEval:
		if line != "" {
			return s.svc.Answer(ctx, line)
		}
		return s.svc.Resume(ctx)
	default:
		return s.svc.Resume(ctx)
	}
	if line == "" {
		return s.svc.Resume(ctx)
	}

	var turn tutor.Turn
	handled, err := s.renderer.Interact(snap.Question.Board, line, s.svc.Select(ctx, &turn))
	if handled {
		return turn, err
	}
	if snap.Question.Board.Kind() == board.KindChoice {
		return tutor.Turn{}, tutor.ErrNotAChoice
	}
	return s.svc.Answer(ctx, line)
}

type learnPhase int

const (
	phaseName learnPhase = iota
	phaseAge
	phaseTutor
)

// turnMsg carries the outcome of a tutor call made off the UI loop.
type turnMsg struct {
	Turn tutor.Turn
	Err  error
}

// learnModel is the terminal UI of a tutoring session. Only one tutor
// call is in flight at a time.
type learnModel struct {
	ctx     context.Context
	sess    *session
	learner coach.Learner
	subject string

	phase   learnPhase
	input   components.TextInput
	choices *components.ChoiceList

	turn      tutor.Turn
	err       error
	notice    string
	busy      bool
	showStats bool
	fatal     error
}

func newLearnModel(ctx context.Context, s *session, l coach.Learner, subject string) *learnModel {
	m := &learnModel{
		ctx:     ctx,
		sess:    s,
		learner: l,
		subject: subject,
		input:   components.NewTextInput("Your name", 40),
	}
	switch {
	case l.Name == "":
		m.phase = phaseName
	case l.Age == 0:
		m.phase = phaseAge
		m.input.Clear("Your age")
	default:
		m.phase = phaseTutor
		m.input.Clear("Your answer")
	}
	return m
}

func (m *learnModel) Init() tea.Cmd {
	if m.phase == phaseTutor {
		return m.begin()
	}
	return m.input.Init()
}

func (m *learnModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case turnMsg:
		return m, m.applyTurn(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.phase {
		case phaseName, phaseAge:
			return m.updateSetup(msg)
		default:
			return m.updateTutor(msg)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *learnModel) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != "enter" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	value := m.input.Value()
	if m.phase == phaseName {
		if value == "" {
			return m, nil
		}
		m.learner.Name = value
		if m.learner.Age == 0 {
			m.phase = phaseAge
			m.input.Clear("Your age")
			return m, nil
		}
		return m, m.begin()
	}

	age := progress.ParseAge(value)
	if age == 0 {
		m.notice = "Type your age as a number, like 7."
		m.input.Clear("Your age")
		return m, nil
	}
	m.learner.Age = age
	return m, m.begin()
}

func (m *learnModel) updateTutor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.choices != nil {
		switch msg.String() {
		case "s":
			return m, m.submit(":skip")
		case "?":
			m.showStats = !m.showStats
			return m, nil
		}
		c := m.choices.Update(msg)
		m.choices = &c
		if line, ok := c.Choice(); ok {
			return m, m.submit(line)
		}
		return m, nil
	}

	if msg.String() != "enter" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	line := m.input.Value()
	m.input.Clear("Your answer")
	switch line {
	case ":quit", ":q":
		return m, tea.Quit
	case ":stats":
		m.showStats = !m.showStats
		return m, nil
	case "":
		if m.err == nil && m.sess.svc.Loop().State() == turnloop.StateWait {
			return m, nil
		}
	}
	return m, m.submit(line)
}

func (m *learnModel) begin() tea.Cmd {
	m.phase = phaseTutor
	m.input.Clear("Your answer")
	m.busy = true
	ctx, svc, l, subject := m.ctx, m.sess.svc, m.learner, m.subject
	return func() tea.Msg {
		t, err := svc.Start(ctx, l, subject)
		return turnMsg{Turn: t, Err: err}
	}
}

func (m *learnModel) submit(line string) tea.Cmd {
	m.busy = true
	m.notice = ""
	ctx, s := m.ctx, m.sess
	return func() tea.Msg {
		t, err := s.handle(ctx, line)
		return turnMsg{Turn: t, Err: err}
	}
}

func (m *learnModel) applyTurn(msg turnMsg) tea.Cmd {
	m.busy = false
	if errors.Is(msg.Err, progress.ErrIncompatibleProfile) {
		m.fatal = msg.Err
		return tea.Quit
	}

	if msg.Err != nil && msg.Turn.Response.CoachSay == "" {
		// Nothing new to show, e.g. input that matches no option.
		m.notice = msg.Err.Error()
		if errors.Is(msg.Err, tutor.ErrNotAChoice) {
			m.notice = "Pick one of the options."
		}
		m.resetChoices()
		return nil
	}

	m.turn, m.err = msg.Turn, msg.Err
	m.resetChoices()
	return nil
}

// resetChoices shows the question's options whenever the learner can
// answer a choice board.
func (m *learnModel) resetChoices() {
	m.choices = nil
	if m.err != nil || m.turn.State != turnloop.StateWait {
		return
	}
	if c, ok := m.turn.Question.Board.Visual.(board.Choice); ok && len(c.Options) > 0 {
		list := components.NewChoiceList(c.Options)
		m.choices = &list
	}
}

func (m *learnModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.SetContent(m.content())
	return v
}

func (m *learnModel) content() string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("☀ Sunny"))
	if m.learner.Name != "" && m.phase == phaseTutor {
		b.WriteString("  " + lipgloss.NewStyle().Foreground(theme.Secondary).Render(fmt.Sprintf("Hi %s! Let's learn.", m.learner.Name)))
	}
	b.WriteString("\n\n")

	switch m.phase {
	case phaseName:
		b.WriteString(theme.Title.Render("What's your name?") + "\n" + m.input.View() + "\n")
	case phaseAge:
		b.WriteString(theme.Title.Render("How old are you?") + "\n" + m.input.View() + "\n")
	default:
		m.writeTurn(&b)
	}

	if m.notice != "" {
		b.WriteString("\n" + theme.Incorrect.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + theme.Hint.Render(m.keyHints()))
	return b.String()
}

func (m *learnModel) writeTurn(b *strings.Builder) {
	if m.showStats {
		printProfile(b, m.sess.svc.Profile())
		b.WriteString("\n")
	}

	turn := m.turn
	if r := turn.Result; r != nil {
		style, mark := theme.Incorrect, "✗"
		switch {
		case r.Correct:
			style, mark = theme.Correct, "✓"
		case r.Partial:
			style, mark = theme.Partial, "~"
		}
		line := mark
		if r.Feedback != "" {
			line += " " + r.Feedback
		}
		b.WriteString(style.Render(line) + "\n")
	}

	// A choice board on display is drawn as the selectable list.
	if m.choices == nil || turn.Response.StudyBoard.Kind() != board.KindChoice {
		m.sess.renderer.Render(b, turn.Response.StudyBoard)
	}
	if turn.Response.CoachSay != "" {
		b.WriteString(theme.CoachSay.Render(turn.Response.CoachSay) + "\n")
	}
	if m.choices != nil {
		b.WriteString("\n" + m.choices.View() + "\n")
	}

	switch {
	case m.busy:
		b.WriteString(theme.Hint.Render("Thinking…") + "\n")
	case m.err != nil:
		b.WriteString(theme.Hint.Render("Press enter to try again.") + "\n")
	case turn.Result != nil:
		if sp, ok := turn.Profile.Subjects[strings.ToLower(turn.Response.Subject)]; ok {
			b.WriteString(theme.Hint.Render(fmt.Sprintf("%d points · streak %d", sp.Points, sp.CurrentStreak)) + "\n")
		}
	}

	if m.choices == nil {
		b.WriteString("\n" + m.input.View() + "\n")
	}
}

func (m *learnModel) keyHints() string {
	switch {
	case m.phase != phaseTutor:
		return "enter continue · esc quit"
	case m.choices != nil:
		return "↑↓ choose · 1-9 pick · enter answer · s skip · ? stats · esc quit"
	default:
		return "enter answer · :skip · :stats · esc quit"
	}
}

func newProvider(ctx context.Context, e *env, events store.EventRepo) (llm.Provider, error) {
	if err := e.cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	return llm.NewProvider(ctx, e.cfg.LLM, events, e.log)
}

func tutorConfig(e *env) tutor.Config {
	cfg := tutor.DefaultConfig()
	cfg.StructuredOutput = e.cfg.Tutor.StructuredOutput
	if e.cfg.Tutor.MaxTokens > 0 {
		cfg.MaxTokens = e.cfg.Tutor.MaxTokens
	}
	if e.cfg.LLM.Timeout > 0 {
		cfg.Timeout = e.cfg.LLM.Timeout
	}
	return cfg
}
