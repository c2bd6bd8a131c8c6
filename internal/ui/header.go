package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// renderMain composes the header, control panel, prompt and footer. Header
// and footer follow ControlsVisible; the control panel follows ShowUI.
func (m Model) renderMain() string {
	var rows []string
	if m.vis.ControlsVisible {
		rows = append(rows, m.renderHeader())
	}
	if m.vis.ShowUI {
		rows = append(rows, m.renderPanel())
	}
	if m.prompt != promptNone {
		rows = append(rows, m.renderPrompt())
	}
	body := lipgloss.JoinVertical(lipgloss.Left, rows...)

	if !m.vis.ControlsVisible {
		return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, body)
	}
	footer := m.renderFooter()
	gap := m.height - lipgloss.Height(body) - lipgloss.Height(footer)
	if gap < 0 {
		gap = 0
	}
	return body + strings.Repeat("\n", gap+1) + footer
}

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	parts := []string{styles.AccentText.Render(m.title())}

	if snap.Running {
		parts = append(parts, styles.BadgeStyle(m.theme.Success).Render("RUNNING"))
	} else {
		parts = append(parts, styles.BadgeStyle(m.theme.Warning).Render("PAUSED"))
	}

	switch {
	case snap.IsOffline():
		parts = append(parts, styles.BadgeStyle(m.theme.Danger).Render("OFFLINE"))
	case !snap.Initialized:
		parts = append(parts, styles.WarningText.Render("Connecting..."))
	}

	if snap.FPS > 0 {
		parts = append(parts,
			styles.MutedText.Render("FPS:")+" "+styles.Text.Render(fmt.Sprintf("%.0f", snap.FPS)))
	}

	if !snap.LastUpdated.IsZero() {
		parts = append(parts, styles.MutedText.Render("synced "+humanize.Time(snap.LastUpdated)))
	}

	if snap.LastError != nil {
		parts = append(parts, styles.DangerText.Render("ERROR")+" "+
			styles.DangerText.Render(truncate(snap.LastError.Error(), 60)))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

// renderFooter renders the status message and short help.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	left := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.status != "" {
		left = styles.LevelStyle(m.statusLevel).Render(truncate(m.status, 80)) + "  " + left
	}
	return styles.Footer.Width(m.width).Render(left)
}
