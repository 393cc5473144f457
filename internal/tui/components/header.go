// Package components provides reusable Bubbletea UI building blocks for
// the vssplot TUI. These are render-only helpers (not tea.Model) used by
// the plot model and the plain output to compose views.
package components

import (
	"strings"

	"nathanbeddoewebdev/vssplot/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Header renders the application header bar.
//
//	┌──────────────────────────────────────────┐
//	│  vssplot > Vehicle.Speed  127.0.0.1:55555│
//	└──────────────────────────────────────────┘
func Header(width int, breadcrumb string, endpoint string) string {
	if width < 10 {
		return ""
	}

	right := ""
	if endpoint != "" {
		right = styles.Subtitle.Render(endpoint)
	}

	leftStyle := styles.Title.Foreground(styles.Blue)
	left := leftStyle.Render("vssplot")
	innerWidth := width - 4 // account for padding
	if breadcrumb != "" {
		prefix := left + styles.MutedText.Render(" > ")
		room := innerWidth - lipgloss.Width(prefix) - lipgloss.Width(right) - 1
		if room < 1 {
			room = 1
		}
		left = prefix + styles.Title.Render(ansi.Truncate(breadcrumb, room, "…"))
	}

	// Calculate spacing between left and right.
	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)
	gap := max(innerWidth-leftLen-rightLen, 1)

	content := left + strings.Repeat(" ", gap) + right

	bar := lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderBottom(true).
		BorderForeground(styles.DimGray).
		Render(content)

	return bar
}
