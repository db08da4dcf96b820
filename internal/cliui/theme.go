// Package cliui holds the small set of rendering helpers cmd/mcpcore shares
// between its plain and interactive (bubbletea) output modes.
package cliui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	catppuccin "github.com/catppuccin/go"
)

// Theme holds the styles used by the profile picker and status output,
// adapted from the teacher's internal/tui/theme.Theme but sourced from the
// catppuccin palette instead of hand-picked hex values.
type Theme struct {
	Base  lipgloss.Style
	Muted lipgloss.Style
	Faint lipgloss.Style
	Title lipgloss.Style

	Primary lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Danger  lipgloss.Style

	Item         lipgloss.Style
	ItemSelected lipgloss.Style

	StatusBar lipgloss.Style
}

func adaptive(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// New builds the default theme, pairing the Latte (light) and Mocha (dark)
// catppuccin flavors the way the teacher pairs its own light/dark hex pairs.
func New() Theme {
	latte, mocha := catppuccin.Latte, catppuccin.Mocha

	primary := adaptive(latte.Mauve().Hex, mocha.Mauve().Hex)
	success := adaptive(latte.Green().Hex, mocha.Green().Hex)
	warn := adaptive(latte.Peach().Hex, mocha.Peach().Hex)
	danger := adaptive(latte.Red().Hex, mocha.Red().Hex)
	muted := adaptive(latte.Subtext0().Hex, mocha.Subtext0().Hex)
	faint := adaptive(latte.Overlay0().Hex, mocha.Overlay0().Hex)
	text := adaptive(latte.Text().Hex, mocha.Text().Hex)

	return Theme{
		Base:  lipgloss.NewStyle().Foreground(text),
		Muted: lipgloss.NewStyle().Foreground(muted),
		Faint: lipgloss.NewStyle().Foreground(faint),
		Title: lipgloss.NewStyle().Bold(true).Foreground(primary),

		Primary: lipgloss.NewStyle().Foreground(primary),
		Success: lipgloss.NewStyle().Foreground(success),
		Warn:    lipgloss.NewStyle().Foreground(warn),
		Danger:  lipgloss.NewStyle().Foreground(danger),

		Item:         lipgloss.NewStyle().Padding(0, 1),
		ItemSelected: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(primary),

		StatusBar: lipgloss.NewStyle().Padding(0, 1).Foreground(muted),
	}
}

// StateIcon renders a connection-state glyph, e.g. for SessionState values.
func (t Theme) StateIcon(connected bool, failed bool) string {
	switch {
	case failed:
		return t.Danger.Render("✖")
	case connected:
		return t.Success.Render("●")
	default:
		return t.Faint.Render("○")
	}
}

// Rule draws a horizontal divider width columns wide.
func (t Theme) Rule(width int) string {
	if width < 1 {
		width = 1
	}
	return t.Faint.Render(strings.Repeat("─", width))
}
