package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#56ab2f"))
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56ab2f")).Padding(0, 1)
	classStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle     = lipgloss.NewStyle().Underline(true)
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	wrapStyle      = lipgloss.NewStyle()
)
