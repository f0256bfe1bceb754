package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#F59E0B") // Amber
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	// CoachSay styles the short coaching line shown every turn.
	CoachSay = lipgloss.NewStyle().
			Bold(true).
			Foreground(Accent)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Partial = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// boardColors maps study board color names to foreground styles.
var boardColors = map[string]lipgloss.Style{
	"blue":   lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
	"green":  lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
	"red":    lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	"purple": lipgloss.NewStyle().Foreground(lipgloss.Color("#8B5CF6")),
	"orange": lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316")),
	"yellow": lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308")),
	"pink":   lipgloss.NewStyle().Foreground(lipgloss.Color("#EC4899")),
	"gray":   lipgloss.NewStyle().Foreground(TextDim),
}

// BoardColor returns the style for a study board color name. Unknown names
// fall back to blue.
func BoardColor(name string) lipgloss.Style {
	if s, ok := boardColors[name]; ok {
		return s
	}
	return boardColors["blue"]
}
