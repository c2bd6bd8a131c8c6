package ui

import (
	"fmt"
	"strings"

	"github.com/five82/simdeck/internal/profile"
)

const (
	labelWidth = 22
	valueWidth = 14
)

// renderPanel renders the field list of the active section.
func (m Model) renderPanel() string {
	styles := m.theme.Styles()

	var b strings.Builder
	for _, section := range []profile.Section{profile.SectionSettings, profile.SectionState} {
		tab := " " + strings.ToUpper(section.String()) + " "
		if section == m.section {
			b.WriteString(styles.BadgeStyle(m.theme.Accent).Render(tab))
		} else {
			b.WriteString(styles.FaintText.Render(tab))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")

	fields := m.fields()
	if len(fields) == 0 {
		b.WriteString(styles.MutedText.Render("No fields"))
		return styles.Panel.Render(b.String())
	}

	rec := m.record(m.section)
	for i, f := range fields {
		label := f.Label
		if label == "" {
			label = f.Name
		}
		value, ok := rec[f.Name]
		text := formatValue(value)
		if !ok {
			text = formatValue(nil)
		}

		line := padRight(truncate(label, labelWidth-1), labelWidth) + padRight(text, valueWidth)
		if hint := fieldHint(f); hint != "" {
			line += " " + styles.FaintText.Render(truncate(hint, 40))
		}

		if i == m.selected {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		if i < len(fields)-1 {
			b.WriteString("\n")
		}
	}
	return styles.Panel.Render(b.String())
}

// renderPrompt renders the active text prompt.
func (m Model) renderPrompt() string {
	styles := m.theme.Styles()
	hint := "enter to apply, esc to cancel"
	if m.prompt == promptEdit {
		if f, ok := m.selectedField(); ok {
			if h := fieldHint(f); h != "" {
				hint = fmt.Sprintf("%s (%s)", hint, h)
			}
		}
	}
	return m.input.View() + "\n" + styles.FaintText.Render(hint)
}
