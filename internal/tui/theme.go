package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorPrimary   = lipgloss.Color("#10B981") // Green (logo, answers)
	colorSecondary = lipgloss.Color("#6EE7B7") // Light green
	colorInfo      = lipgloss.Color("#FACC15") // Yellow (narration)
	colorSuccess   = lipgloss.Color("#22C55E") // Green (done)
	colorDanger    = lipgloss.Color("#EF4444") // Red (errors)
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
)

// Shared styles used by the prompt views.
var (
	// "?" in front of every question.
	questionMarkStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary)

	questionStyle = lipgloss.NewStyle().
			Bold(true)

	// Echoed answer once a prompt is finished.
	answerStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	// Highlighted row of a select list.
	selectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D1D5DB"))

	// Muted text (placeholders, byte counters).
	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Validation errors under an input.
	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Bullet in front of clone error suggestions.
	hintBulletStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	// Yes / No buttons of the confirm prompt.
	dialogButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(colorMuted).
				Padding(0, 2)

	dialogActiveButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(colorPrimary).
				Padding(0, 2).
				Bold(true)
)

// renderQuestion renders "? title" for an open prompt.
func renderQuestion(title string) string {
	return questionMarkStyle.Render("?") + " " + questionStyle.Render(title)
}

// renderAnswered renders the line left on screen after a prompt is answered:
// "? title answer"
func renderAnswered(title, answer string) string {
	return renderQuestion(title) + " " + answerStyle.Render(answer)
}
