package ui

import (
	"fmt"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/L235/MWRecentChangesReport/internal/models"
)

var (
	// Color palette
	pink   = lipgloss.Color("205")
	cyan   = lipgloss.Color("86")
	green  = lipgloss.Color("82")
	yellow = lipgloss.Color("220")
	red    = lipgloss.Color("196")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(pink).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(cyan)

	successStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(yellow).
			Bold(true)

	countStyle = lipgloss.NewStyle().
			Foreground(yellow)
)

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Println(successStyle.Render(message))
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Println(errorStyle.Render("Error: " + message))
}

// PrintWarning prints a non-fatal warning
func PrintWarning(message string) {
	fmt.Println(warningStyle.Render("Warning: " + message))
}

// PrintDigestSummary prints a per-page breakdown of the aggregated changes.
// Used by dry runs so the digest can be inspected without sending anything.
func PrintDigestSummary(groups []models.ChangeGroup, window models.Window) {
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("Digest for %s", window.DateRange())))

	if len(groups) == 0 {
		fmt.Println(subtitleStyle.Render("No changes in window"))
		return
	}

	total := 0
	for _, g := range groups {
		total += len(g.Changes)
		last := g.Changes[len(g.Changes)-1]
		fmt.Printf("  %s %s %s\n",
			countStyle.Render(fmt.Sprintf("%3d", len(g.Changes))),
			g.Title,
			subtitleStyle.Render(fmt.Sprintf("(last by %s at %s)", last.User, last.Timestamp.Format("Jan 02 15:04"))))
	}

	fmt.Println()
	fmt.Println(subtitleStyle.Render(fmt.Sprintf("%d changes across %d pages", total, len(groups))))
}

// WithSpinner runs action behind a spinner when attached to a terminal
func WithSpinner(title string, action func()) error {
	return spinner.New().Title(title).Action(action).Run()
}
