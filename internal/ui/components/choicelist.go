package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sunny/internal/ui/theme"
)

// ChoiceList lets a learner pick one option of a choice board with the
// arrow keys or by pressing the option's number.
type ChoiceList struct {
	Options     []string
	Selected    int
	Submitted   bool
	ChosenIndex int
}

// NewChoiceList creates a list with the first option selected.
func NewChoiceList(options []string) ChoiceList {
	return ChoiceList{
		Options:     options,
		ChosenIndex: -1,
	}
}

// Update handles keyboard navigation and selection.
func (c ChoiceList) Update(msg tea.Msg) ChoiceList {
	if c.Submitted {
		return c
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Selected > 0 {
			c.Selected--
		}
	case "down", "j":
		if c.Selected < len(c.Options)-1 {
			c.Selected++
		}
	case "enter":
		c.Submitted = true
		c.ChosenIndex = c.Selected
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if n := int(key[0] - '1'); n < len(c.Options) {
				c.Selected = n
				c.Submitted = true
				c.ChosenIndex = n
			}
		}
	}
	return c
}

// Choice returns the 1-based number of the chosen option, as a learner
// would type it.
func (c ChoiceList) Choice() (string, bool) {
	if !c.Submitted || c.ChosenIndex < 0 {
		return "", false
	}
	return fmt.Sprint(c.ChosenIndex + 1), true
}

// View renders the options.
func (c ChoiceList) View() string {
	lines := make([]string, len(c.Options))
	for i, opt := range c.Options {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == c.Selected {
			prefix = "▸ "
			style = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		}
		lines[i] = style.Render(fmt.Sprintf("%s%d)  %s", prefix, i+1, opt))
	}
	return strings.Join(lines, "\n")
}
