package output

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	numberStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	draftStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	openStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	mergedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	closedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	approvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// InitColors disables styling when stdout is not a terminal or NO_COLOR is
// set, so piped output stays plain.
func InitColors() {
	if os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// ColorPRNumber renders a pull request number reference.
func ColorPRNumber(number int) string {
	return numberStyle.Render(fmt.Sprintf("#%d", number))
}

// ColorState renders a pull request state label.
func ColorState(state string, draft bool) string {
	switch {
	case draft && state == "open":
		return draftStyle.Render("draft")
	case state == "open":
		return openStyle.Render("open")
	case state == "merged":
		return mergedStyle.Render("merged")
	default:
		return closedStyle.Render("closed")
	}
}

// ColorChecks renders a check-status glyph: passing, pending or failing.
func ColorChecks(passing, pending bool) string {
	switch {
	case pending:
		return pendingStyle.Render("●")
	case passing:
		return openStyle.Render("✓")
	default:
		return closedStyle.Render("✗")
	}
}

// ColorApproval renders the approval marker, empty when not approved.
func ColorApproval(approved bool) string {
	if !approved {
		return ""
	}
	return approvedStyle.Render("approved")
}

// ColorDim makes text dim/gray
func ColorDim(text string) string {
	return draftStyle.Render(text)
}
