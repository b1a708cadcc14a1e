package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Title      lipgloss.Style
	PhasePill  lipgloss.Style
	TabActive  lipgloss.Style
	TabIdle    lipgloss.Style
	Author     lipgloss.Style
	Badge      lipgloss.Style
	Repost     lipgloss.Style
	Highlight  lipgloss.Style
	StatusOK   lipgloss.Style
	StatusWarn lipgloss.Style
	Footer     lipgloss.Style
}

func DefaultTheme() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		PhasePill:  lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		TabActive:  lipgloss.NewStyle().Bold(true).Foreground(cpText).Background(cpSurface0).Padding(0, 1),
		TabIdle:    lipgloss.NewStyle().Foreground(cpSubtext0).Padding(0, 1),
		Author:     lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		Badge:      lipgloss.NewStyle().Foreground(cpPeach).Bold(true),
		Repost:     lipgloss.NewStyle().Foreground(cpSubtext0).Italic(true),
		Highlight:  lipgloss.NewStyle().Foreground(cpYellow).Bold(true),
		StatusOK:   lipgloss.NewStyle().Foreground(cpGreen),
		StatusWarn: lipgloss.NewStyle().Foreground(cpPeach),
		Footer:     lipgloss.NewStyle().Foreground(cpSubtext0),
	}
}
