// Package board describes the study board shown next to every coaching line.
package board

// Kind is the visual variant of a study board.
type Kind string

const (
	KindLetter           Kind = "letter"
	KindWord             Kind = "word"
	KindCircles          Kind = "circles"
	KindEmoji            Kind = "emoji"
	KindAddition         Kind = "addition"
	KindAdditionEmoji    Kind = "addition-emoji"
	KindSubtractionEmoji Kind = "subtraction-emoji"
	KindNumberLine       Kind = "number-line"
	KindChoice           Kind = "choice"
	KindTrace            Kind = "trace"
	KindText             Kind = "text"
	KindNone             Kind = "none"
)

// AllKinds returns every visual kind a renderer must support.
func AllKinds() []Kind {
	return []Kind{
		KindLetter, KindWord, KindCircles, KindEmoji, KindAddition,
		KindAdditionEmoji, KindSubtractionEmoji, KindNumberLine,
		KindChoice, KindTrace, KindText, KindNone,
	}
}

// Visual is one variant of the study board payload.
type Visual interface {
	Kind() Kind
}

// Letter shows a single large character.
type Letter struct {
	Char string
}

// Word shows a word to read or spell.
type Word struct {
	Text string
}

// Circles shows Count plain dots.
type Circles struct {
	Count int
}

// Emoji shows Count copies of Glyph.
type Emoji struct {
	Count int
	Glyph string
}

// Addition shows an arithmetic expression such as "3 + 4".
type Addition struct {
	Expression string
}

// AdditionEmoji shows two groups of glyphs to combine.
type AdditionEmoji struct {
	Count1 int
	Count2 int
	Glyph  string
}

// SubtractionEmoji shows Count1 glyphs with Count2 of them crossed out.
type SubtractionEmoji struct {
	Count1 int
	Count2 int
	Glyph  string
}

// NumberLine marks Value on a 0..10 line.
type NumberLine struct {
	Value int
}

// Choice offers options the learner can pick from.
type Choice struct {
	Options []string
}

// Trace shows a shape or letter to trace.
type Trace struct {
	Shape string
}

// Text shows free text.
type Text struct {
	Body string
}

// None is the empty board.
type None struct{}

func (Letter) Kind() Kind           { return KindLetter }
func (Word) Kind() Kind             { return KindWord }
func (Circles) Kind() Kind          { return KindCircles }
func (Emoji) Kind() Kind            { return KindEmoji }
func (Addition) Kind() Kind         { return KindAddition }
func (AdditionEmoji) Kind() Kind    { return KindAdditionEmoji }
func (SubtractionEmoji) Kind() Kind { return KindSubtractionEmoji }
func (NumberLine) Kind() Kind       { return KindNumberLine }
func (Choice) Kind() Kind           { return KindChoice }
func (Trace) Kind() Kind            { return KindTrace }
func (Text) Kind() Kind             { return KindText }
func (None) Kind() Kind             { return KindNone }

// Default colors.
const (
	ColorDefault = "blue"
	ColorNeutral = "gray"
)

// Board is a visual plus the color it is drawn in.
type Board struct {
	Visual Visual
	Color  string
}

// New returns a board in the default color.
func New(v Visual) Board {
	return Board{Visual: v, Color: ColorDefault}
}

// Placeholder is the neutral board used when a response carries none.
func Placeholder() Board {
	return Board{Visual: None{}, Color: ColorNeutral}
}

// Kind returns the board's visual kind. A nil visual is KindNone.
func (b Board) Kind() Kind {
	if b.Visual == nil {
		return KindNone
	}
	return b.Visual.Kind()
}

// IsEmpty reports whether the board has nothing to show.
func (b Board) IsEmpty() bool {
	return b.Kind() == KindNone
}
