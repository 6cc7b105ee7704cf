package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary     = lipgloss.Color("#2196F3")
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#8a94a6")
	border      = lipgloss.Color("#2a3850")
	destructive = lipgloss.Color("#e53935")
)

// Styles holds the lipgloss styles used by the chat screen
type Styles struct {
	Sidebar        lipgloss.Style
	SidebarFocused lipgloss.Style
	Transcript     lipgloss.Style
	Title          lipgloss.Style
	Item           lipgloss.Style
	ItemActive     lipgloss.Style
	ItemCursor     lipgloss.Style
	Preview        lipgloss.Style
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Timestamp      lipgloss.Style
	Muted          lipgloss.Style
	Error          lipgloss.Style
	Status         lipgloss.Style
}

// DefaultStyles returns the default chat styles
func DefaultStyles() Styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	return Styles{
		Sidebar:        pane,
		SidebarFocused: pane.BorderForeground(primary),
		Transcript:     pane,
		Title:          lipgloss.NewStyle().Bold(true).Foreground(primary),
		Item:           lipgloss.NewStyle(),
		ItemActive:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		ItemCursor:     lipgloss.NewStyle().Reverse(true),
		Preview:        lipgloss.NewStyle().Foreground(muted),
		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(primary),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(accent),
		Timestamp:      lipgloss.NewStyle().Foreground(muted),
		Muted:          lipgloss.NewStyle().Foreground(muted).Italic(true),
		Error:          lipgloss.NewStyle().Foreground(destructive),
		Status:         lipgloss.NewStyle().Foreground(muted),
	}
}
