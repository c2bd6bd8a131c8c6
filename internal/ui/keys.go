package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the viewer.
type keyMap struct {
	// Global
	Quit        key.Binding
	Help        key.Binding
	CycleTheme  key.Binding
	Diagnostics key.Binding
	Escape      key.Binding

	// Simulation
	Pause     key.Binding
	ToggleUI  key.Binding
	Preset    key.Binding
	Randomize key.Binding
	Reset     key.Binding

	// Camera
	PanLeft  key.Binding
	PanRight key.Binding
	PanUp    key.Binding
	PanDown  key.Binding

	// Controls
	NextField     key.Binding
	PrevField     key.Binding
	SwitchSection key.Binding
	Edit          key.Binding
	Increase      key.Binding
	Decrease      key.Binding

	// Diagnostics
	ProblemsOnly key.Binding

	// Input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Diagnostics: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Diagnostics"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close overlay"),
		),

		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Pause/resume"),
		),
		ToggleUI: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Hide/show GUI"),
		),
		Preset: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Apply preset"),
		),
		Randomize: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Randomize"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reset settings"),
		),

		PanLeft: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "Pan left"),
		),
		PanRight: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "Pan right"),
		),
		PanUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "Pan up"),
		),
		PanDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "Pan down"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		SwitchSection: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Settings/state"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "Edit field"),
		),
		Increase: key.NewBinding(
			key.WithKeys("+", "=", "]"),
			key.WithHelp("+", "Step up"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("-", "["),
			key.WithHelp("-", "Step down"),
		),

		ProblemsOnly: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Problems only"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.ToggleUI, k.Edit, k.Diagnostics, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.ToggleUI, k.Preset, k.Randomize, k.Reset},
		{k.PanLeft, k.PanRight, k.PanUp, k.PanDown},
		{k.NextField, k.PrevField, k.SwitchSection, k.Edit, k.Increase, k.Decrease},
		{k.Diagnostics, k.ProblemsOnly, k.CycleTheme, k.Help, k.Quit},
	}
}
