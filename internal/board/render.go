package board

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sunny/internal/ui/theme"
)

// Renderer draws a study board. Implementations must handle every Kind.
type Renderer interface {
	Render(w io.Writer, b Board) error
}

// SelectFunc receives the option a learner picked on a choice board.
type SelectFunc func(option string) error

// Interactive is implemented by renderers that accept input on the board
// itself. Interact reports whether the input was consumed by the board.
type Interactive interface {
	Interact(b Board, input string, onSelect SelectFunc) (bool, error)
}

// ResolveChoice maps learner input to one of the options of a choice
// board. The input may be a 1-based index or the option text in any case.
func ResolveChoice(b Board, input string) (string, bool) {
	c, ok := b.Visual.(Choice)
	if !ok || len(c.Options) == 0 {
		return "", false
	}
	input = strings.TrimSpace(input)
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(c.Options) {
		return c.Options[n-1], true
	}
	for _, opt := range c.Options {
		if strings.EqualFold(strings.TrimSpace(opt), input) {
			return opt, true
		}
	}
	return "", false
}

// TerminalRenderer draws boards as styled text.
type TerminalRenderer struct {
	// Width of the board card in cells. Zero means no fixed width.
	Width int
}

// NewTerminalRenderer returns a renderer with a card width of 44 cells.
func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{Width: 44}
}

// Render writes the board. Empty boards write nothing.
func (r *TerminalRenderer) Render(w io.Writer, b Board) error {
	if b.IsEmpty() {
		return nil
	}
	body := r.content(b)
	card := theme.Card
	if r.Width > 0 {
		card = card.Width(r.Width)
	}
	_, err := fmt.Fprintln(w, card.Render(body))
	return err
}

// Interact handles a choice selection. Any other board ignores input.
func (r *TerminalRenderer) Interact(b Board, input string, onSelect SelectFunc) (bool, error) {
	opt, ok := ResolveChoice(b, input)
	if !ok {
		return false, nil
	}
	if onSelect == nil {
		return true, nil
	}
	return true, onSelect(opt)
}

func (r *TerminalRenderer) content(b Board) string {
	accent := theme.BoardColor(b.Color)
	big := accent.Bold(true)

	switch v := b.Visual.(type) {
	case Letter:
		return big.Render(spaced(strings.ToUpper(v.Char)))
	case Word:
		return big.Render(spaced(strings.ToUpper(v.Text)))
	case Circles:
		return accent.Render(repeatGlyph("●", v.Count))
	case Emoji:
		return repeatGlyph(v.Glyph, v.Count) + "\n" + theme.Hint.Render(fmt.Sprintf("%d in all?", v.Count))
	case Addition:
		return big.Render(v.Expression)
	case AdditionEmoji:
		return lipgloss.JoinHorizontal(lipgloss.Center,
			repeatGlyph(v.Glyph, v.Count1),
			big.Render("  +  "),
			repeatGlyph(v.Glyph, v.Count2),
		)
	case SubtractionEmoji:
		left := v.Count1 - v.Count2
		if left < 0 {
			left = 0
		}
		taken := v.Count2
		if taken > v.Count1 {
			taken = v.Count1
		}
		return repeatGlyph(v.Glyph, left) + theme.Hint.Render(strings.Repeat(" ✗", taken))
	case NumberLine:
		return numberLine(v.Value, accent)
	case Choice:
		lines := make([]string, len(v.Options))
		for i, opt := range v.Options {
			lines[i] = fmt.Sprintf("%s %s", big.Render(fmt.Sprintf("[%d]", i+1)), opt)
		}
		return strings.Join(lines, "\n")
	case Trace:
		return theme.Hint.Render(spaced(v.Shape)) + "\n" + theme.Hint.Render("trace it with your finger")
	case Text:
		return theme.Body.Render(v.Body)
	default:
		return ""
	}
}

func repeatGlyph(g string, n int) string {
	if n <= 0 {
		return ""
	}
	if n > maxCount*2 {
		n = maxCount * 2
	}
	return strings.TrimSpace(strings.Repeat(g+" ", n))
}

func spaced(s string) string {
	return strings.Join(strings.Split(s, ""), " ")
}

func numberLine(value int, accent lipgloss.Style) string {
	var ticks, labels strings.Builder
	for i := 0; i <= 10; i++ {
		mark := "┼"
		if i == value {
			mark = accent.Bold(true).Render("▼")
		}
		ticks.WriteString(mark)
		labels.WriteString(fmt.Sprintf("%-3d", i))
		if i < 10 {
			ticks.WriteString("──")
		}
	}
	return ticks.String() + "\n" + strings.TrimRight(labels.String(), " ")
}
