package render

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// Styles for human-facing status output.
var (
	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// StatusText styles a run/attempt status string for terminal output.
// Verified/passing states render green, rejected/failing states red,
// everything else amber. Returns the input unchanged when color is off.
func StatusText(status string, noColor bool) string {
	if noColor {
		return status
	}
	switch status {
	case "verified", "PASS", "PASSED", "accepted":
		return successStyle.Render(status)
	case "rejected", "FAIL", "FAILED", "ERROR":
		return errorStyle.Render(status)
	default:
		return warningStyle.Render(status)
	}
}

// Muted styles secondary detail text.
func Muted(s string, noColor bool) string {
	if noColor {
		return s
	}
	return mutedStyle.Render(s)
}
