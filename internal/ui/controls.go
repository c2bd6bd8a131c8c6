package ui

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/five82/simdeck/internal/engine"
	"github.com/five82/simdeck/internal/profile"
)

// fields returns the fields of the active section.
func (m Model) fields() []profile.Field {
	if m.prof == nil {
		return nil
	}
	return m.prof.Fields(m.section)
}

// selectedField returns the field under the cursor.
func (m Model) selectedField() (profile.Field, bool) {
	fields := m.fields()
	if m.selected < 0 || m.selected >= len(fields) {
		return profile.Field{}, false
	}
	return fields[m.selected], true
}

func (m *Model) moveSelection(delta int) {
	n := len(m.fields())
	if n == 0 {
		m.selected = 0
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
}

func (m *Model) switchSection() {
	if m.section == profile.SectionSettings {
		m.section = profile.SectionState
	} else {
		m.section = profile.SectionSettings
	}
	m.selected = 0
}

func (m Model) record(section profile.Section) engine.Record {
	if section == profile.SectionState {
		return m.runtime
	}
	return m.settings
}

func (m *Model) setRecord(section profile.Section, rec engine.Record) {
	if section == profile.SectionState {
		m.runtime = rec
	} else {
		m.settings = rec
	}
}

// stepValue returns the value one step from current in direction dir (+1 or
// -1). Numbers move by the field step and clamp to its bounds, booleans
// toggle and enums cycle. Strings cannot be stepped.
func stepValue(f profile.Field, current any, dir int) (any, bool) {
	switch f.Kind {
	case profile.KindNumber, profile.KindInt:
		step := f.Step
		if step <= 0 {
			step = 1
		}
		v, ok := current.(float64)
		if !ok {
			v = 0
			if f.Min != nil {
				v = *f.Min
			}
		}
		v += float64(dir) * step
		if f.Kind == profile.KindInt {
			v = math.Round(v)
		}
		if f.Min != nil && v < *f.Min {
			v = *f.Min
		}
		if f.Max != nil && v > *f.Max {
			v = *f.Max
		}
		return v, true
	case profile.KindBool:
		b, _ := current.(bool)
		return !b, true
	case profile.KindEnum:
		if len(f.Options) == 0 {
			return nil, false
		}
		s, _ := current.(string)
		i := slices.Index(f.Options, s)
		if i < 0 {
			return f.Options[0], true
		}
		n := len(f.Options)
		return f.Options[((i+dir)%n+n)%n], true
	default:
		return nil, false
	}
}

// formatValue renders a record value for the control panel and as the
// initial text of an edit.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "–"
	case float64:
		return strconv.FormatFloat(x, 'g', 6, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// fieldHint describes a field's accepted input.
func fieldHint(f profile.Field) string {
	switch f.Kind {
	case profile.KindNumber, profile.KindInt:
		var parts []string
		if f.Min != nil {
			parts = append(parts, "min "+formatValue(*f.Min))
		}
		if f.Max != nil {
			parts = append(parts, "max "+formatValue(*f.Max))
		}
		return strings.Join(parts, ", ")
	case profile.KindEnum:
		return strings.Join(f.Options, " | ")
	case profile.KindBool:
		return "true | false"
	default:
		return ""
	}
}
