package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/simdeck/internal/autohide"
	"github.com/five82/simdeck/internal/engine"
	"github.com/five82/simdeck/internal/logtail"
	"github.com/five82/simdeck/internal/prefs"
	"github.com/five82/simdeck/internal/profile"
	"github.com/five82/simdeck/internal/screen"
	"github.com/five82/simdeck/internal/state"
	"github.com/five82/simdeck/internal/syncmgr"
)

const (
	defaultTick = time.Second
	panStep     = 32.0 // CSS px per pan key press
	diagLimit   = 400
)

type promptKind int

const (
	promptNone promptKind = iota
	promptEdit
	promptPreset
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Screen     *screen.Screen
	Relay      *Relay
	LogPath    string
	CellWidth  float64
	CellHeight float64
	WheelStep  float64
	Tick       time.Duration

	// Prefs seeds the theme, section and preset prompt. Changes are written
	// back to PrefsPath.
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	scr       *screen.Screen
	prof      *profile.Profile
	surface   surface
	logPath   string
	tick      time.Duration
	prefs     prefs.Prefs
	prefsPath string

	// UI state
	keys   keyMap
	help   help.Model
	theme  Theme
	width  int
	height int
	ready  bool

	// Data state
	settings engine.Record
	runtime  engine.Record
	vis      autohide.State
	snapshot state.Snapshot

	// Control panel
	section  profile.Section
	selected int
	prompt   promptKind
	input    textinput.Model

	// Status line
	status      string
	statusLevel logtail.Level

	// Overlays
	showHelp     bool
	showDiag     bool
	problemsOnly bool
	diag         viewport.Model
	diagLines    []string
}

type tickMsg time.Time

type startedMsg struct{ err error }

type opDoneMsg struct {
	what   string
	preset string
	err    error
}

type editDoneMsg struct {
	key string
	err error
}

type prefsSavedMsg struct{ err error }

type tailMsg struct {
	lines []string
	err   error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	surf := surface{cellW: opts.CellWidth, cellH: opts.CellHeight, wheelStep: opts.WheelStep}
	if surf.cellW <= 0 {
		surf.cellW = 8
	}
	if surf.cellH <= 0 {
		surf.cellH = 16
	}
	if surf.wheelStep <= 0 {
		surf.wheelStep = 100
	}

	input := textinput.New()
	input.CharLimit = 64

	m := Model{
		ctx:       ctx,
		scr:       opts.Screen,
		surface:   surf,
		logPath:   opts.LogPath,
		tick:      tick,
		prefs:     opts.Prefs,
		prefsPath: opts.PrefsPath,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		theme:     GetTheme(opts.Prefs.Theme),
		settings:  engine.Record{},
		runtime:   engine.Record{},
		input:     input,
	}
	if opts.Prefs.Section == profile.SectionState.String() {
		m.section = profile.SectionState
	}
	if m.scr != nil {
		m.prof = m.scr.Profile()
		m.settings = m.scr.Settings()
		m.runtime = m.scr.RuntimeState()
		m.vis = m.scr.Visibility()
		m.snapshot = m.scr.Store().Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), tickCmd(m.tick))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.scr == nil {
			return m, nil
		}
		if (m.showHelp || m.showDiag) && !heldThroughOverlay(m.scr, msg) {
			return m, nil
		}
		m.surface.routeMouse(m.scr, msg)
		return m.syncVisibility()

	case tea.FocusMsg:
		if m.scr != nil {
			m.scr.Interaction()
		}
		return m.syncVisibility()

	case tea.BlurMsg:
		if m.scr != nil {
			m.scr.Blur()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.diag = viewport.New(max(msg.Width-4, 10), max(msg.Height-6, 3))
		m.ready = true
		m.updateDiagViewport()
		return m, nil

	case tickMsg:
		if m.scr != nil {
			m.snapshot = m.scr.Store().Snapshot()
		}
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.showDiag {
			cmds = append(cmds, m.tailCmd())
		}
		return m, tea.Batch(cmds...)

	case startedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("start failed: %v", msg.err), logtail.LevelError)
		} else {
			m.setStatus("starting "+m.title(), logtail.LevelInfo)
		}
		return m, nil

	case initializedMsg:
		m.snapshot.Initialized = true
		m.setStatus(m.title()+" ready", logtail.LevelInfo)
		return m, nil

	case fpsMsg:
		m.snapshot.FPS = float64(msg)
		return m, nil

	case recordMsg:
		if msg.kind == syncmgr.KindState {
			m.runtime = msg.rec
		} else {
			m.settings = msg.rec
		}
		return m, nil

	case visibilityMsg:
		return m.applyVisibility(autohide.State(msg))

	case opDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("%s failed: %v", msg.what, msg.err), logtail.LevelError)
			return m, nil
		}
		m.setStatus(msg.what+" applied", logtail.LevelInfo)
		if msg.preset != "" {
			m.prefs.LastPreset = msg.preset
			return m, m.savePrefsCmd()
		}
		return m, nil

	case prefsSavedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("save preferences: %v", msg.err), logtail.LevelWarn)
		}
		return m, nil

	case editDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("%s not applied: %v", msg.key, msg.err), logtail.LevelWarn)
		}
		return m, nil

	case tailMsg:
		if msg.err != nil {
			m.diagLines = []string{"warning: " + msg.err.Error()}
		} else {
			m.diagLines = msg.lines
		}
		m.updateDiagViewport()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showDiag {
		return m.renderDiagnostics()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.scr == nil {
		return m, nil
	}
	m.scr.Interaction()

	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m.syncVisibility()
	}
	if m.showDiag {
		return m.handleDiagKey(msg)
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true

	case key.Matches(msg, m.keys.Diagnostics):
		m.showDiag = true
		cmd = m.tailCmd()

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		cmd = m.savePrefsCmd()

	case key.Matches(msg, m.keys.Pause):
		if m.scr.TogglePause() {
			m.setStatus("running", logtail.LevelInfo)
		} else {
			m.setStatus("paused", logtail.LevelInfo)
		}
		m.snapshot = m.scr.Store().Snapshot()

	case key.Matches(msg, m.keys.ToggleUI):
		m.scr.ToggleUI()

	case key.Matches(msg, m.keys.PanLeft):
		m.scr.Pan(-panStep, 0)
	case key.Matches(msg, m.keys.PanRight):
		m.scr.Pan(panStep, 0)
	case key.Matches(msg, m.keys.PanUp):
		m.scr.Pan(0, -panStep)
	case key.Matches(msg, m.keys.PanDown):
		m.scr.Pan(0, panStep)

	case key.Matches(msg, m.keys.NextField):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.PrevField):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.SwitchSection):
		m.switchSection()
		m.prefs.Section = m.section.String()
		cmd = m.savePrefsCmd()

	case key.Matches(msg, m.keys.Edit):
		return m.beginEdit()
	case key.Matches(msg, m.keys.Increase):
		return m.step(1)
	case key.Matches(msg, m.keys.Decrease):
		return m.step(-1)

	case key.Matches(msg, m.keys.Preset):
		m.openPrompt(promptPreset, "preset: ", m.prefs.LastPreset)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Randomize):
		cmd = m.opCmd("randomize", m.scr.Randomize)
	case key.Matches(msg, m.keys.Reset):
		cmd = m.opCmd("reset", m.scr.Reset)
	}

	next, visCmd := m.syncVisibility()
	return next, tea.Batch(cmd, visCmd)
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closePrompt()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		text := m.input.Value()
		kind := m.prompt
		m.closePrompt()
		if kind == promptPreset {
			name := strings.TrimSpace(text)
			if name == "" {
				return m, nil
			}
			scr, ctx := m.scr, m.ctx
			return m, func() tea.Msg {
				return opDoneMsg{what: "preset " + name, preset: name, err: scr.ApplyPreset(ctx, name)}
			}
		}
		return m.commitText(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openPrompt(kind promptKind, prompt, value string) {
	m.prompt = kind
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.SetValue("")
}

// beginEdit toggles booleans and cycles enums in place; other kinds open
// the text prompt prefilled with the current value.
func (m Model) beginEdit() (tea.Model, tea.Cmd) {
	f, ok := m.selectedField()
	if !ok {
		return m, nil
	}
	if f.Kind == profile.KindBool || f.Kind == profile.KindEnum {
		return m.step(1)
	}
	current, present := m.record(m.section)[f.Name]
	value := ""
	if present {
		value = formatValue(current)
	}
	m.openPrompt(promptEdit, f.Label+": ", value)
	return m, textinput.Blink
}

func (m Model) step(dir int) (tea.Model, tea.Cmd) {
	f, ok := m.selectedField()
	if !ok {
		return m, nil
	}
	value, ok := stepValue(f, m.record(m.section)[f.Name], dir)
	if !ok {
		return m.beginEdit()
	}
	var (
		rec engine.Record
		op  *syncmgr.Op
		err error
	)
	if m.section == profile.SectionState {
		rec, op, err = m.scr.EditState(f.Name, value)
	} else {
		rec, op, err = m.scr.EditSetting(f.Name, value)
	}
	return m.afterEdit(f.Name, rec, op, err)
}

func (m Model) commitText(text string) (tea.Model, tea.Cmd) {
	f, ok := m.selectedField()
	if !ok {
		return m, nil
	}
	rec, op, err := m.scr.EditText(m.section, f.Name, text)
	return m.afterEdit(f.Name, rec, op, err)
}

func (m Model) afterEdit(name string, rec engine.Record, op *syncmgr.Op, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.setStatus(fmt.Sprintf("%s: %v", name, err), logtail.LevelWarn)
		return m, nil
	}
	m.setRecord(m.section, rec)
	m.setStatus("", logtail.LevelInfo)
	ctx := m.ctx
	return m, func() tea.Msg {
		_, err := op.Wait(ctx)
		return editDoneMsg{key: name, err: err}
	}
}

func (m Model) handleDiagKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Diagnostics):
		m.showDiag = false
		return m, nil
	case key.Matches(msg, m.keys.ProblemsOnly):
		m.problemsOnly = !m.problemsOnly
		m.updateDiagViewport()
		return m, nil
	}
	var cmd tea.Cmd
	m.diag, cmd = m.diag.Update(msg)
	return m, cmd
}

// syncVisibility pulls the auto-hide state after input, which may have shown
// hidden controls.
func (m Model) syncVisibility() (tea.Model, tea.Cmd) {
	if m.scr == nil {
		return m, nil
	}
	return m.applyVisibility(m.scr.Visibility())
}

func (m Model) applyVisibility(next autohide.State) (tea.Model, tea.Cmd) {
	prev := m.vis
	m.vis = next
	if prev.CursorHidden == next.CursorHidden {
		return m, nil
	}
	if next.CursorHidden {
		return m, tea.HideCursor
	}
	return m, tea.ShowCursor
}

func (m *Model) setStatus(text string, level logtail.Level) {
	m.status = text
	m.statusLevel = level
}

func (m Model) title() string {
	if m.prof == nil {
		return "simulation"
	}
	return m.prof.Title
}

func (m Model) startCmd() tea.Cmd {
	if m.scr == nil {
		return nil
	}
	scr, ctx := m.scr, m.ctx
	return func() tea.Msg {
		return startedMsg{err: scr.Start(ctx)}
	}
}

func (m Model) opCmd(what string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{what: what, err: fn(ctx)}
	}
}

func (m Model) tailCmd() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, diagLimit)
		return tailMsg{lines: lines, err: err}
	}
}

func (m Model) savePrefsCmd() tea.Cmd {
	if m.prefsPath == "" {
		return nil
	}
	path, p := m.prefsPath, m.prefs
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}
