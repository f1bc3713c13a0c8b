package screens

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// UserSelectedMsg is sent when the user switch modal confirms a user
type UserSelectedMsg struct {
	User string
}

// ModalClosedMsg is sent when a modal is dismissed without a selection
type ModalClosedMsg struct{}

func SelectUser(user string) tea.Cmd {
	return func() tea.Msg {
		return UserSelectedMsg{User: user}
	}
}

func CloseModal() tea.Cmd {
	return func() tea.Msg {
		return ModalClosedMsg{}
	}
}

// RefreshMsg is sent when data should be refreshed
type RefreshMsg struct{}

func Refresh() tea.Cmd {
	return func() tea.Msg {
		return RefreshMsg{}
	}
}

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	NormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	GridLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("237"))

	TodayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)
