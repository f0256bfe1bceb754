// Package tutor runs a tutoring session: it asks the model for a question,
// grades the learner's answer, drives the turn loop and records progress.
package tutor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/sunny/internal/board"
	"github.com/abhisek/sunny/internal/coach"
	"github.com/abhisek/sunny/internal/grading"
	"github.com/abhisek/sunny/internal/llm"
	"github.com/abhisek/sunny/internal/progress"
	"github.com/abhisek/sunny/internal/turnloop"
)

// DefaultHomeworkQuestion is sent when homework help is asked for without
// any text.
const DefaultHomeworkQuestion = "Can you help me with this homework?"

var (
	// ErrNoSession is returned when a turn is played before Start.
	ErrNoSession = errors.New("no active tutoring session")

	// ErrNotAChoice is returned by Choose for input that matches no option.
	ErrNotAChoice = errors.New("answer does not match any choice")
)

// Turn is what the learner sees after each step.
type Turn struct {
	Response   coach.Response
	State      turnloop.State
	Result     *grading.Result // nil when nothing was graded
	Struggling bool
	Profile    progress.LearnerProfile
	Generation uint64

	// Question is the question being worked on. Its board stays the one to
	// answer even when a hint shows a different board.
	Question turnloop.Question
}

// Correct reports whether this turn graded an answer as correct.
func (t Turn) Correct() bool {
	return t.Result != nil && t.Result.Correct
}

// Service is one learner's tutoring session. It is driven by a single
// caller and is not safe for concurrent use.
type Service struct {
	provider llm.Provider
	repo     *progress.Repo
	loop     *turnloop.Loop
	cfg      Config
	baseLog  logrus.FieldLogger
	log      logrus.FieldLogger
	voice    *speaker

	sessionID string
	learner   coach.Learner
	subject   string
	profile   progress.LearnerProfile
	history   []llm.Message
	current   coach.Response
	started   bool
}

// NewService creates a tutor over provider with profiles kept in repo.
func NewService(provider llm.Provider, repo *progress.Repo, cfg Config, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		provider: provider,
		repo:     repo,
		loop:     turnloop.New(),
		cfg:      cfg.withDefaults(),
		baseLog:  log,
		log:      log,
	}
}

// SetVoice enables spoken coaching lines.
func (s *Service) SetVoice(v Voice) {
	if s.voice != nil {
		s.voice.close()
	}
	s.voice = newSpeaker(v, s.baseLog)
}

// Close stops any line being spoken.
func (s *Service) Close() {
	if s.voice != nil {
		s.voice.close()
		s.voice = nil
	}
}

// Loop exposes the turn state machine, e.g. to observe transitions.
func (s *Service) Loop() *turnloop.Loop {
	return s.loop
}

// Profile returns the learner's profile as of the last turn.
func (s *Service) Profile() progress.LearnerProfile {
	return s.profile
}

// SessionID identifies the current session in logs.
func (s *Service) SessionID() string {
	return s.sessionID
}

// Current returns the reply on display.
func (s *Service) Current() coach.Response {
	return s.current
}

// Start loads or creates the learner's profile and asks the first
// question in subject. Storage failures are logged and the session goes
// on in memory. A model failure returns a turn carrying the fallback
// message together with the error; Resume asks again.
func (s *Service) Start(ctx context.Context, l coach.Learner, subject string) (Turn, error) {
	s.sessionID = uuid.NewString()
	s.subject = strings.ToLower(strings.TrimSpace(subject))
	s.log = s.baseLog.WithFields(logrus.Fields{
		"session": s.sessionID,
		"learner": progress.Key(l.Name, l.Age),
		"subject": s.subject,
	})
	s.loop.Reset()
	s.history = nil
	s.current = coach.Response{}

	profile, created, err := s.repo.LoadOrCreate(ctx, l.Name, l.Age)
	if err != nil {
		if errors.Is(err, progress.ErrIncompatibleProfile) {
			return Turn{}, err
		}
		s.log.WithError(err).Warn("profile storage unavailable, continuing in memory")
	}
	s.profile = profile
	l.Returning = !created
	s.learner = l
	s.started = true

	s.log.WithField("returning", l.Returning).Info("tutoring session started")
	return s.ask(ctx)
}

// Answer submits the learner's answer to the current question.
//
// Questions with a declared expect type and answer are graded locally.
// Otherwise the model judges the reply and its state field decides; raw
// text is inspected only when the reply could not be parsed. Every
// verdict updates progress. A wrong answer moves through TEACH and RETRY
// back to WAIT with the model's remediation on display; a correct one
// moves through ADVANCE to the next question.
func (s *Service) Answer(ctx context.Context, text string) (Turn, error) {
	if !s.started {
		return Turn{}, ErrNoSession
	}
	if err := s.loop.SubmitAnswer(text); err != nil {
		return Turn{}, err
	}
	return s.evaluate(ctx)
}

// evaluate judges the submitted answer. A failed model call leaves the
// loop in EVAL so the same answer can be judged again.
func (s *Service) evaluate(ctx context.Context) (Turn, error) {
	snap := s.loop.Snapshot()
	q, text := snap.Question, snap.Answer

	if gradable(q) {
		res, err := s.loop.EvaluateSubmitted()
		if err != nil {
			return Turn{}, err
		}
		s.record(ctx, res.Correct)
		if res.Correct {
			return s.advance(ctx, coach.PraisePrompt(text), &res)
		}
		return s.remediate(ctx, q, text, res)
	}

	resp, raw, err := s.converse(ctx, coach.AnswerPrompt(text))
	if err != nil {
		return s.failed(err, nil)
	}
	res := grading.Result{Correct: progress.Outcome(resp.State, raw)}
	if err := s.loop.Judge(res); err != nil {
		return Turn{}, err
	}
	s.record(ctx, res.Correct)

	if res.Correct {
		if _, err := s.loop.Advance(s.question(resp)); err != nil {
			return Turn{}, err
		}
	} else if err := s.retryWith(resp); err != nil {
		return Turn{}, err
	}
	return s.show(resp, &res), nil
}

// Choose answers a choice board with an option picked by its 1-based
// number or its text.
func (s *Service) Choose(ctx context.Context, input string) (Turn, error) {
	if !s.started {
		return Turn{}, ErrNoSession
	}
	opt, ok := board.ResolveChoice(s.loop.Snapshot().Question.Board, input)
	if !ok {
		return Turn{}, ErrNotAChoice
	}
	return s.Answer(ctx, opt)
}

// Select returns the renderer callback for choice boards. The turn it
// produces is stored in out.
func (s *Service) Select(ctx context.Context, out *Turn) board.SelectFunc {
	return func(option string) error {
		t, err := s.Answer(ctx, option)
		*out = t
		return err
	}
}

// Resume recovers after a failed model call by repeating whatever step
// the loop is waiting on. In EVAL the answer already submitted is judged
// again. In WAIT it simply returns the current turn.
func (s *Service) Resume(ctx context.Context) (Turn, error) {
	if !s.started {
		return Turn{}, ErrNoSession
	}
	snap := s.loop.Snapshot()
	switch snap.State {
	case turnloop.StateAsk:
		return s.ask(ctx)
	case turnloop.StateEval:
		return s.evaluate(ctx)
	case turnloop.StateAdvance:
		return s.advance(ctx, coach.ContinuePrompt(), snap.LastResult)
	case turnloop.StateTeach:
		res := grading.Result{}
		if snap.LastResult != nil {
			res = *snap.LastResult
		}
		return s.remediate(ctx, snap.Question, snap.Answer, res)
	}
	return s.turn(s.current, nil), nil
}

// Skip abandons the current question and asks a new one. Results of calls
// made for the abandoned question are disregarded.
func (s *Service) Skip(ctx context.Context) (Turn, error) {
	if !s.started {
		return Turn{}, ErrNoSession
	}
	s.loop.Reset()
	return s.ask(ctx)
}

// Homework answers a free-form homework question, optionally about a
// photo. It does not touch the turn loop or progress.
func (s *Service) Homework(ctx context.Context, l coach.Learner, question string, img *llm.Image) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		question = DefaultHomeworkQuestion
	}
	msg := llm.Message{Role: llm.RoleUser, Content: question}
	if img != nil {
		msg.Images = []llm.Image{*img}
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeHomework)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:    coach.HomeworkPrompt(l),
		Messages:  []llm.Message{msg},
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		s.baseLog.WithError(err).Error("homework request failed")
		return coach.FallbackMessage, err
	}
	return resp.Text(), nil
}

func (s *Service) ask(ctx context.Context) (Turn, error) {
	band := s.learner.Band()
	prompt := coach.AssessmentPrompt(s.subject, band)
	if sp, ok := s.profile.Subjects[s.subject]; ok && sp.ActivitiesCompleted > 0 {
		prompt = coach.LevelPrompt(s.subject, s.profile.LevelName(s.subject), band)
	}

	resp, _, err := s.converse(ctx, prompt)
	if err != nil {
		return s.failed(err, nil)
	}
	s.loop.Ask(s.question(resp))
	return s.show(resp, nil), nil
}

func (s *Service) advance(ctx context.Context, prompt string, res *grading.Result) (Turn, error) {
	resp, _, err := s.converse(ctx, prompt)
	if err != nil {
		// Still in ADVANCE: Resume asks again.
		return s.failed(err, res)
	}
	if _, err := s.loop.Advance(s.question(resp)); err != nil {
		return Turn{}, err
	}
	return s.show(resp, res), nil
}

func (s *Service) remediate(ctx context.Context, q turnloop.Question, answer string, res grading.Result) (Turn, error) {
	done, err := s.loop.Teach()
	if err != nil {
		return Turn{}, err
	}
	struggling := s.loop.Snapshot().Struggling

	resp, _, err := s.converse(ctx, coach.RemediationPrompt(q.Prompt, answer, res, struggling))
	if err != nil {
		// Still in TEACH: Resume asks again.
		return s.failed(err, &res)
	}
	if err := done(); err != nil {
		return Turn{}, err
	}
	if err := s.retryWith(resp); err != nil {
		return Turn{}, err
	}
	return s.show(resp, &res), nil
}

// retryWith re-poses the question. A reply that carries a new gradable
// question replaces the old one.
func (s *Service) retryWith(resp coach.Response) error {
	var next *turnloop.Question
	if resp.IsQuestion() {
		q := s.question(resp)
		next = &q
	}
	return s.loop.Retry(next)
}

// converse sends prompt with the recent history and interprets the reply.
// It returns the recovered response and the raw model text.
func (s *Service) converse(ctx context.Context, prompt string) (coach.Response, string, error) {
	gen := s.loop.Generation()
	ctx = llm.WithPurpose(ctx, llm.PurposeTurn)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user := llm.Message{Role: llm.RoleUser, Content: prompt}
	req := llm.Request{
		System:    coach.SystemPrompt(s.learner),
		Messages:  append(s.recentHistory(), user),
		MaxTokens: s.cfg.MaxTokens,
	}
	if s.cfg.StructuredOutput {
		req.Schema = coach.ResponseSchema
	}

	out, err := s.provider.Generate(ctx, req)
	if err != nil {
		s.log.WithError(err).Error("model call failed")
		return coach.Response{}, "", err
	}
	if !s.loop.Current(gen) {
		return coach.Response{}, "", turnloop.ErrStale
	}

	raw := out.Text()
	s.history = append(s.history, user, llm.Message{Role: llm.RoleAssistant, Content: raw})

	resp, perr := coach.Interpret(raw, s.subject)
	if perr != nil {
		s.log.WithError(perr).Debug("model reply recovered as plain text")
	}
	return resp, raw, nil
}

// recentHistory returns at most HistoryLimit messages, starting with a
// user message.
func (s *Service) recentHistory() []llm.Message {
	h := s.history
	if len(h) > s.cfg.HistoryLimit {
		h = h[len(h)-s.cfg.HistoryLimit:]
	}
	for len(h) > 0 && h[0].Role != llm.RoleUser {
		h = h[1:]
	}
	return append([]llm.Message(nil), h...)
}

func (s *Service) record(ctx context.Context, correct bool) {
	s.profile = progress.UpdateProgress(s.profile, s.subject, correct, time.Now())
	if err := s.repo.Save(ctx, s.profile); err != nil {
		s.log.WithError(err).Warn("progress not persisted this turn")
	}
}

func (s *Service) question(resp coach.Response) turnloop.Question {
	return turnloop.Question{
		Prompt:        resp.CoachSay,
		CorrectAnswer: resp.CorrectAnswer,
		Expect:        resp.Expect,
		Board:         resp.StudyBoard,
		Subject:       s.subject,
		Level:         s.profile.Subjects[s.subject].Level,
	}
}

func (s *Service) show(resp coach.Response, res *grading.Result) Turn {
	s.current = resp
	s.say(resp.CoachSay)
	return s.turn(resp, res)
}

func (s *Service) failed(err error, res *grading.Result) (Turn, error) {
	fallback := coach.Recover(coach.Parsed{Err: err}, s.subject)
	return s.turn(fallback, res), err
}

func (s *Service) turn(resp coach.Response, res *grading.Result) Turn {
	snap := s.loop.Snapshot()
	return Turn{
		Response:   resp,
		State:      snap.State,
		Result:     res,
		Struggling: snap.Struggling,
		Profile:    s.profile,
		Generation: snap.Generation,
		Question:   snap.Question,
	}
}

func (s *Service) say(text string) {
	if s.voice == nil || text == "" {
		return
	}
	s.voice.say(text)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func gradable(q turnloop.Question) bool {
	return q.Expect != "" && q.Expect != grading.ExpectNone && !q.CorrectAnswer.Empty()
}
