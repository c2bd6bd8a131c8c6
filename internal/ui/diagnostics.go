package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/simdeck/internal/logtail"
)

// updateDiagViewport re-renders the log tail into the viewport and keeps it
// scrolled to the newest line.
func (m *Model) updateDiagViewport() {
	if !m.ready {
		return
	}
	styles := m.theme.Styles()
	lines := m.diagLines
	if m.problemsOnly {
		lines = logtail.Filter(lines, logtail.LevelWarn)
	}
	if len(lines) == 0 {
		msg := "No log output yet"
		if m.problemsOnly {
			msg = "No warnings or errors"
		}
		m.diag.SetContent(styles.MutedText.Render(msg))
		return
	}
	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = styles.LevelStyle(logtail.Classify(line)).Render(line)
	}
	m.diag.SetContent(strings.Join(rendered, "\n"))
	m.diag.GotoBottom()
}

// renderDiagnostics renders the log tail overlay.
func (m Model) renderDiagnostics() string {
	styles := m.theme.Styles()

	mode := "all lines"
	if m.problemsOnly {
		mode = "warnings and errors"
	}
	title := styles.AccentText.Render("Diagnostics") + "  " +
		styles.MutedText.Render(truncateMiddle(m.logPath, 60)) + "  " +
		styles.FaintText.Render(mode)
	footer := styles.FaintText.Render("f problems only  ↑/↓ scroll  esc close")

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Header.Width(m.width).Render(title),
		styles.Panel.Render(m.diag.View()),
		styles.Footer.Width(m.width).Render(footer),
	)
}
