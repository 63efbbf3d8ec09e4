// Package ui provides styled terminal output helpers for the evolve CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// colorEnabled reports whether stdout is a terminal that can render color.
// NO_COLOR is honored per https://no-color.org.
var colorEnabled = func() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}()

// Lipgloss styles for consistent terminal output
var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // Red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // Yellow
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // Blue
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // Gray
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

func render(style lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return style.Render(text)
}

// Themed output functions
func Success(text string) string { return render(successStyle, "✓ "+text) }
func Error(text string) string   { return render(errorStyle, "✗ "+text) }
func Warning(text string) string { return render(warningStyle, "⚠ "+text) }
func Info(text string) string    { return render(infoStyle, text) }
func Dim(text string) string     { return render(dimStyle, text) }
func Bold(text string) string    { return render(boldStyle, text) }

// Revision renders a migration revision identifier.
func Revision(rev string) string { return render(boldStyle, rev) }

// Pending renders a pending status marker.
func Pending() string { return render(warningStyle, "pending") }

// Applied renders an applied status marker.
func Applied() string { return render(successStyle, "applied") }
