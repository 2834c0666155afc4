package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Title is used for section headings.
	Title = lipgloss.NewStyle().Bold(true).Foreground(White)

	// MutedText is for hints and secondary detail.
	MutedText = lipgloss.NewStyle().Foreground(Muted)

	SuccessText = lipgloss.NewStyle().Foreground(Green).Bold(true)
	WarningText = lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	ErrorText   = lipgloss.NewStyle().Foreground(Red).Bold(true)
)

// tone groups status words that share a color.
type tone int

const (
	neutral tone = iota
	good
	caution
	bad
)

// statusTones covers drift states, domain states, credential and tool
// availability. Unlisted statuses render neutral.
var statusTones = map[string]tone{
	"ok":          good,
	"enabled":     good,
	"available":   good,
	"ip-mismatch": caution,
	"untracked":   caution,
	"external":    caution,
	"missing":     bad,
	"not found":   bad,
	"disabled":    bad,
	"error":       bad,
}

// StatusStyle returns the style for a status word.
func StatusStyle(status string) lipgloss.Style {
	switch statusTones[status] {
	case good:
		return SuccessText
	case caution:
		return lipgloss.NewStyle().Foreground(Yellow)
	case bad:
		return lipgloss.NewStyle().Foreground(Red)
	default:
		return lipgloss.NewStyle().Foreground(Gray)
	}
}

// StatusIndicator renders "● status" in the status color.
func StatusIndicator(status string) string {
	return StatusStyle(status).Render("● " + status)
}

// Section renders a heading followed by a rule of the same width.
func Section(title string) string {
	return Title.Render(title) + "\n" + MutedText.Render(strings.Repeat("─", lipgloss.Width(title)))
}
