package coach

import (
	"fmt"
	"strings"

	"github.com/abhisek/sunny/internal/board"
	"github.com/abhisek/sunny/internal/grading"
	"github.com/abhisek/sunny/internal/progress"
)

// Learner is what the prompts need to know about who is being taught.
type Learner struct {
	Name      string
	Age       int
	Language  string // profile language, default "en"
	Learning  string // optional target language
	Returning bool
}

// Band returns the learner's age band.
func (l Learner) Band() progress.AgeBand {
	return progress.BandFor(l.Age)
}

var toneRules = map[progress.AgeBand][]string{
	progress.BandEarly: {
		"VERY simple language (1-2 sentences)",
		"BIG emojis and visuals",
		"Heavy encouragement",
		"Voice-first interaction",
	},
	progress.BandMiddle: {
		"Simple clear language (2-3 sentences)",
		"Visual aids helpful",
		"Encouraging tone",
		"Mix of voice and text",
	},
	progress.BandTween: {
		"Direct clear language",
		"Visuals when helpful",
		"Challenge appropriately",
		"Mostly text interaction",
	},
	progress.BandTeen: {
		"Efficient professional tone",
		"Minimal hand-holding",
		"Challenge thinking",
		"Text-based interaction",
	},
}

const responseFormat = `RESPONSE FORMAT (CRITICAL)

You MUST respond with ONLY a JSON object. No other text before or after. No markdown code blocks.

Example:
{
  "coach_say": "What letter is this?",
  "study_board": {"visual": "A", "visualType": "letter", "visualColor": "blue"},
  "expect": "letter",
  "correctAnswer": "A",
  "state": "ask",
  "difficulty": 0,
  "subject": "reading"
}

Fields:
- coach_say: short motivating message, at most 140 characters
- study_board: the visual workspace, never omitted
- expect: one of %s
- correctAnswer: the expected answer; for freeform, a list of required keywords
- state: ask, teach, retry or advance

For reading questions about letters: visualType MUST be "letter" and visual MUST be the letter.
For counting questions: visualType MUST be "emoji" and visual MUST be {"count": 5, "glyph": "🐸"}.
For addition: visualType MUST be "addition-emoji" with {"count1": 3, "count2": 2, "glyph": "🍎"}.

Visual types:
- letter: a single letter ("A")
- word: a word ("CAT")
- circles: counting circles (visual: number of circles)
- emoji: counting with emojis ({"count": 5, "glyph": "🐸"})
- addition: a math expression ("3+2")
- addition-emoji: {"count1": 3, "count2": 2, "glyph": "🍎"}
- subtraction-emoji: {"count1": 5, "count2": 2, "glyph": "🍎"}
- number-line: a number line with the value highlighted (visual: number)
- choice: multiple choice (visual: ["Option A", "Option B", "Option C"])
- trace: a letter or shape to trace
- text: plain text
- none: no visual`

const guardrails = `GUARDRAILS

- Never give direct answers; guide with hints
- Be generous with partial credit for young learners
- Accept phonetic spellings ("kat" for "cat")
- Always provide visual support on study_board
- Match difficulty to current performance
- Encourage without empty praise`

// SystemPrompt builds the tutoring system prompt for a learner.
func SystemPrompt(l Learner) string {
	band := l.Band()
	var b strings.Builder

	fmt.Fprintf(&b, "You are Sunny, an adaptive tutor teaching %s (age %d).\n\n", l.Name, l.Age)

	b.WriteString("TEACHING LOOP\n\n")
	b.WriteString("Every turn has two surfaces: coach_say (a short spoken line) and study_board (a visual).\n")
	b.WriteString("Ask one clear question, wait for the answer, teach briefly if it is wrong, retry with a simpler version, advance when it is right.\n\n")

	fmt.Fprintf(&b, "AGE ADAPTATION (%s)\n\n", band)
	for _, rule := range toneRules[band] {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, responseFormat, expectList())
	b.WriteString("\n\n")
	b.WriteString(guardrails)
	b.WriteString("\n\n")

	lang := l.Language
	if lang == "" {
		lang = "en"
	}
	b.WriteString("CURRENT SESSION\n\n")
	fmt.Fprintf(&b, "Student: %s, %d years old\n", l.Name, l.Age)
	fmt.Fprintf(&b, "Profile language: %s\n", lang)
	if l.Learning != "" {
		fmt.Fprintf(&b, "Learning: %s\n", l.Learning)
	} else {
		b.WriteString("Learning: Core subjects\n")
	}
	if l.Returning {
		b.WriteString("Returning student with learning history\n")
	} else {
		b.WriteString("New student, starting assessment\n")
	}
	b.WriteString("\nRemember: respond with ONLY JSON.")

	return b.String()
}

// HomeworkPrompt is the free-form system prompt used when the learner
// brings their own homework, optionally as a photo.
func HomeworkPrompt(l Learner) string {
	if l.Band().Young() {
		return fmt.Sprintf("You are a friendly, patient tutor for a %d-year-old child. "+
			"Use simple words, short sentences, and lots of encouragement. "+
			"Make learning fun with examples they can relate to like toys, animals, and games. "+
			"Never show the actual homework answers; guide them to discover answers through questions and hints.", l.Age)
	}
	return fmt.Sprintf("You are a helpful tutor for a %d-year-old student. "+
		"Be clear and encouraging, but treat them maturely. "+
		"Break down complex concepts step-by-step. "+
		"Never just give answers; ask guiding questions to help them think through problems. "+
		"Use analogies and real-world examples when helpful.", l.Age)
}

// AssessmentPrompt asks for an opening question in subject.
func AssessmentPrompt(subject string, band progress.AgeBand) string {
	return fmt.Sprintf("Create an assessment question for %s suitable for age group %s.\n"+
		"Return JSON only with coach_say, study_board, expect, and correctAnswer fields.", subject, band)
}

// LevelPrompt asks for a question at a named level.
func LevelPrompt(subject, levelName string, band progress.AgeBand) string {
	return fmt.Sprintf("Ask a %s question at the %q level for age group %s.\n"+
		"Return JSON only with coach_say, study_board, expect, and correctAnswer fields.", subject, levelName, band)
}

// TeachingPrompt asks the model to explain a concept.
func TeachingPrompt(subject, levelName, concept string) string {
	return fmt.Sprintf("Teach %s in %s at %s level.\n"+
		"Return JSON only with coach_say, study_board explaining the concept.", concept, subject, levelName)
}

// ContinuePrompt asks for the next question after a correct answer.
func ContinuePrompt() string {
	return "Continue the lesson with the next question.\n" +
		"Return JSON only with coach_say, study_board, expect, and correctAnswer fields."
}

// PraisePrompt reports a correct answer and asks for the next question.
func PraisePrompt(answer string) string {
	return fmt.Sprintf("The student answered %q, which is correct. Celebrate briefly in coach_say, then ask the next question.\n"+
		"Return JSON only with coach_say, study_board, expect, and correctAnswer fields.", answer)
}

// RemediationPrompt asks for a short explanation after a wrong answer,
// followed by a simpler retry of the same question.
func RemediationPrompt(question, answer string, result grading.Result, struggling bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The student answered %q to: %s\n", answer, question)
	fmt.Fprintf(&b, "Grading: %s\n", verdict(result))
	if result.Feedback != "" {
		fmt.Fprintf(&b, "Feedback: %s\n", result.Feedback)
	}
	if struggling {
		b.WriteString("The student is struggling. Make the retry noticeably simpler.\n")
	}
	b.WriteString("Teach briefly with a visual hint, then ask a simpler version of the same question.\n")
	b.WriteString(`Return JSON only with coach_say, study_board, expect, correctAnswer, and state "retry".`)
	return b.String()
}

// AnswerPrompt relays a learner reply to a turn that posed no gradable
// question. The model decides the outcome through its state field.
func AnswerPrompt(answer string) string {
	return fmt.Sprintf("The student replied: %q\n"+
		"If this answers your question correctly, say so and set state to \"advance\". "+
		"Otherwise teach briefly and set state to \"retry\".\n"+
		"Return JSON only.", answer)
}

func verdict(r grading.Result) string {
	switch {
	case r.Correct:
		return "correct"
	case r.Partial:
		return "partially correct"
	}
	return "incorrect"
}

func expectList() string {
	return strings.Join(expectNames(), ", ")
}

// Kinds lists the study board kinds the model may use.
func Kinds() []string {
	kinds := board.AllKinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
