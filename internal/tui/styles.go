package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/lista/internal/model"
)

// ------- minimal styling helpers (Lip Gloss) -------
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	businessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	personalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

// badge renders the one-letter category tag.
func badge(c model.Category) string {
	switch c {
	case model.CategoryBusiness:
		return businessStyle.Render("[b]")
	case model.CategoryPersonal:
		return personalStyle.Render("[p]")
	}
	return mutedStyle.Render("[?]")
}

func panelString(inner string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	return border.Render(inner)
}
