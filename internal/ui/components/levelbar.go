// Package components holds small terminal widgets shared by CLI commands.
package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sunny/internal/progress"
	"github.com/abhisek/sunny/internal/ui/theme"
)

// LevelBar shows how far a learner is through a subject's levels.
type LevelBar struct {
	Subject string
	Level   int
	Max     int
	Width   int
}

// NewLevelBar builds a bar for one subject of a profile.
func NewLevelBar(subject string, sp progress.SubjectProgress, width int) LevelBar {
	return LevelBar{Subject: subject, Level: sp.Level, Max: sp.MaxLevel, Width: width}
}

// Fraction returns completed levels over the whole ladder, in [0, 1].
func (b LevelBar) Fraction() float64 {
	steps := b.Max + 1
	if steps <= 0 {
		return 0
	}
	f := float64(b.Level+1) / float64(steps)
	return min(max(f, 0), 1)
}

// View renders the bar.
func (b LevelBar) View() string {
	label := lipgloss.NewStyle().Foreground(theme.Text).Render(fmt.Sprintf("%-10s", b.Subject)) + "  "
	counter := fmt.Sprintf("  %d/%d", b.Level+1, b.Max+1)

	barWidth := max(b.Width-lipgloss.Width(label)-len(counter), 4)
	filled := int(float64(barWidth) * b.Fraction())
	empty := barWidth - filled

	bar := lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", empty))

	return label + bar + lipgloss.NewStyle().Foreground(theme.TextDim).Render(counter)
}
