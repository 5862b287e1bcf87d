package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HostRow is one line of the hosts listing.
type HostRow struct {
	Alias       string // ssh_config Host alias
	Destination string // user@host:port the alias resolves to
}

// RenderHostTable renders ssh_config aliases next to their destinations.
func RenderHostTable(rows []HostRow) string {
	if len(rows) == 0 {
		return ""
	}

	aliasStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row.Alias))
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(padRight(aliasStyle.Render(row.Alias), width+2))
		b.WriteString(mutedStyle.Render(row.Destination))
		b.WriteString("\n")
	}
	return b.String()
}

// RecordRow is one recorded command in an archive summary.
type RecordRow struct {
	State     string
	Command   string
	ExitCode  int    // negative for a signal
	NextState string // empty when the state does not change
}

// RenderRecordTable renders an archive summary, one command per line, in
// recording order.
func RenderRecordTable(rows []RecordRow) string {
	if len(rows) == 0 {
		return "No commands recorded\n"
	}

	successStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	errorStyle := lipgloss.NewStyle().Foreground(ColorError)
	warnStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	stateStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	stateWidth := lipgloss.Width("STATE")
	for _, row := range rows {
		stateWidth = max(stateWidth, lipgloss.Width(row.State))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("  " + padRight("STATE", stateWidth+2) + padRight("EXIT", 6) + "COMMAND"))
	b.WriteString("\n")

	for _, row := range rows {
		exit := strconv.Itoa(row.ExitCode)
		var icon string
		switch {
		case row.ExitCode == 0:
			icon = successStyle.Render(SymbolSuccess)
		case row.ExitCode < 0:
			icon = warnStyle.Render(SymbolSignal)
			exit = warnStyle.Render(exit)
		default:
			icon = errorStyle.Render(SymbolFail)
			exit = errorStyle.Render(exit)
		}
		state := row.State
		if state == "" {
			state = "-"
		}
		b.WriteString(icon + " ")
		b.WriteString(padRight(mutedStyle.Render(state), stateWidth+2))
		b.WriteString(padRight(exit, 6))
		b.WriteString(row.Command)
		if row.NextState != "" {
			b.WriteString(" " + stateStyle.Render(SymbolArrow+" "+row.NextState))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// padRight pads a string to the specified visible width.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
