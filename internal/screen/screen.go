package screen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/five82/simdeck/internal/autohide"
	"github.com/five82/simdeck/internal/engine"
	"github.com/five82/simdeck/internal/pointer"
	"github.com/five82/simdeck/internal/profile"
	"github.com/five82/simdeck/internal/state"
	"github.com/five82/simdeck/internal/syncmgr"
	"github.com/five82/simdeck/internal/timers"
)

// ErrClosed is returned by operations on a closed screen.
var ErrClosed = errors.New("screen closed")

// Hooks deliver asynchronous outcomes to the UI. Every hook is optional and
// may be called from any goroutine.
type Hooks struct {
	RecordChanged func(kind syncmgr.Kind, rec engine.Record)
	Visibility    func(autohide.State)
	Initialized   func()
	FPS           func(fps float64)
}

// Options configure a Screen.
type Options struct {
	Channel          engine.Channel
	Profile          *profile.Profile
	Store            *state.Store
	AutoHide         autohide.Config
	ZoomSensitivity  float64
	DevicePixelRatio func() float64
	Scheduler        timers.Scheduler
	Logger           *log.Logger
	Hooks            Hooks
}

// Screen is the per-simulation composition root.
type Screen struct {
	ch       engine.Channel
	prof     *profile.Profile
	store    *state.Store
	log      *log.Logger
	hooks    Hooks
	sync     *syncmgr.Manager
	hide     *autohide.Controller
	router   *pointer.Router
	dispatch *engine.Dispatcher

	// ctx outlives individual calls; it bounds background persistence and is
	// cancelled on Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	settings engine.Record
	runtime  engine.Record
	unsubs   []func()
	closed   bool
}

// New wires a screen for opts.Profile. It does not contact the engine until
// Start.
func New(opts Options) (*Screen, error) {
	if opts.Channel == nil {
		return nil, fmt.Errorf("screen requires a channel")
	}
	if opts.Profile == nil {
		return nil, fmt.Errorf("screen requires a profile")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Screen{
		ch:       opts.Channel,
		prof:     opts.Profile,
		store:    store,
		log:      logger,
		hooks:    opts.Hooks,
		ctx:      ctx,
		cancel:   cancel,
		settings: engine.Record{},
		runtime:  engine.Record{},
	}

	mgr, err := syncmgr.New(syncmgr.Options{
		Channel:   opts.Channel,
		Validator: opts.Profile,
		Logger:    logger,
		OnChange:  s.recordChanged,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	s.sync = mgr

	visibility := func() { s.visibilityChanged() }
	s.hide = autohide.New(opts.AutoHide, autohide.Callbacks{
		ShowControls: visibility,
		HideControls: visibility,
		ShowCursor:   visibility,
		HideCursor:   visibility,
	}, opts.Scheduler)

	s.dispatch = engine.NewDispatcher(opts.Channel, logger)
	s.router = pointer.New(pointer.Options{
		Sender:           s.dispatch,
		DevicePixelRatio: opts.DevicePixelRatio,
		ZoomSensitivity:  opts.ZoomSensitivity,
		Scheduler:        opts.Scheduler,
		Logger:           logger,
	})
	return s, nil
}

// Profile returns the profile the screen was built for.
func (s *Screen) Profile() *profile.Profile {
	return s.prof
}

// Store returns the liveness store fed by engine events.
func (s *Screen) Store() *state.Store {
	return s.store
}

// Start subscribes to engine events and asks the engine to start the
// simulation. Records are fetched once simulation-initialized arrives.
func (s *Screen) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.unsubs = append(s.unsubs,
		s.ch.Subscribe(engine.EventSimulationInitialized, s.onInitialized),
		s.ch.Subscribe(engine.EventFPSUpdate, s.onFPS),
	)
	s.mu.Unlock()

	s.store.Begin(s.prof.Name)
	if _, err := s.ch.Invoke(ctx, engine.CmdStartSimulation, engine.StartArgs{Kind: s.prof.Name}); err != nil {
		s.store.RecordSync(err)
		return fmt.Errorf("start %s: %w", s.prof.Name, err)
	}
	return nil
}

// Close tears the screen down exactly once: timers are cancelled, held
// buttons released, subscriptions dropped and the simulation destroyed.
func (s *Screen) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	s.hide.Cleanup()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	s.router.Blur()
	s.router.Close()
	s.dispatch.Send(engine.CmdDestroySimulation, nil)
	s.dispatch.Close()
	s.cancel()
}

// Settings returns the settings record as last rendered.
func (s *Screen) Settings() engine.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// RuntimeState returns the runtime state record as last rendered.
func (s *Screen) RuntimeState() engine.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runtime.Clone()
}

// Visibility returns the auto-hide state.
func (s *Screen) Visibility() autohide.State {
	return s.hide.State()
}

// Interaction marks generic user activity, such as a key press.
func (s *Screen) Interaction() {
	if s.isClosed() {
		return
	}
	s.hide.HandleUserInteraction()
}

// TogglePause pauses a running simulation or resumes a paused one and
// reports whether it is now running.
func (s *Screen) TogglePause() bool {
	if s.isClosed() {
		return s.hide.State().Running
	}
	s.hide.HandleUserInteraction()
	if s.hide.State().Running {
		s.dispatch.Send(engine.CmdPauseSimulation, nil)
		s.hide.HandlePause()
		s.store.SetRunning(false)
		return false
	}
	s.dispatch.Send(engine.CmdResumeSimulation, nil)
	s.hide.HandleResume()
	s.store.SetRunning(true)
	return true
}

// ToggleUI shows or hides the main GUI and reports the new setting.
func (s *Screen) ToggleUI() bool {
	show := !s.hide.State().ShowUI
	s.hide.HandleUIToggle(show)
	return show
}

// EditSetting applies an optimistic settings edit. The returned record is
// rendered immediately; the Op resolves once the engine has answered.
func (s *Screen) EditSetting(key string, value any) (engine.Record, *syncmgr.Op, error) {
	return s.edit(syncmgr.KindSettings, key, value)
}

// EditState applies an optimistic runtime state edit.
func (s *Screen) EditState(key string, value any) (engine.Record, *syncmgr.Op, error) {
	return s.edit(syncmgr.KindState, key, value)
}

// EditText parses text for the named field of section and applies it.
func (s *Screen) EditText(section profile.Section, key, text string) (engine.Record, *syncmgr.Op, error) {
	field, ok := s.prof.Field(section, key)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s %q", profile.ErrUnknownField, section, key)
	}
	value, err := profile.ParseValue(field, text)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", syncmgr.ErrInvalidValue, err)
	}
	if section == profile.SectionState {
		return s.EditState(key, value)
	}
	return s.EditSetting(key, value)
}

// ApplyPreset loads a named preset and resyncs both records.
func (s *Screen) ApplyPreset(ctx context.Context, name string) error {
	return s.invoke(func() (engine.Record, engine.Record, error) { return s.sync.ApplyPreset(ctx, name) })
}

// Randomize randomizes the settings and resyncs both records.
func (s *Screen) Randomize(ctx context.Context) error {
	return s.invoke(func() (engine.Record, engine.Record, error) { return s.sync.Randomize(ctx) })
}

// Reset restores default settings and resyncs both records.
func (s *Screen) Reset(ctx context.Context) error {
	return s.invoke(func() (engine.Record, engine.Record, error) { return s.sync.Reset(ctx) })
}

// Resync replaces both records with a fresh fetch.
func (s *Screen) Resync(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	_, _, err := s.sync.SyncAll(ctx)
	s.store.RecordSync(err)
	return err
}

// ResyncState replaces the runtime state with a fresh fetch.
func (s *Screen) ResyncState(ctx context.Context) error {
	if s.isClosed() {
		return ErrClosed
	}
	_, err := s.sync.SyncState(ctx)
	s.store.RecordSync(err)
	return err
}

// PointerDown forwards a press.
func (s *Screen) PointerDown(ev pointer.Event) {
	if s.tap() {
		s.router.Down(ev)
	}
}

// PointerMove forwards a move.
func (s *Screen) PointerMove(ev pointer.Event) {
	if s.tap() {
		s.router.Move(ev)
	}
}

// PointerUp forwards a release.
func (s *Screen) PointerUp(ev pointer.Event) {
	if s.tap() {
		s.router.Up(ev)
	}
}

// ContextMenu forwards a context-menu request as a secondary press.
func (s *Screen) ContextMenu(ev pointer.Event) {
	if s.tap() {
		s.router.ContextMenu(ev)
	}
}

// PointerLeave force-releases dev's buttons.
func (s *Screen) PointerLeave(dev pointer.DeviceID) {
	if s.tap() {
		s.router.Leave(dev)
	}
}

// Wheel forwards a zoom.
func (s *Screen) Wheel(ev pointer.WheelEvent) {
	if s.tap() {
		s.router.Wheel(ev)
	}
}

// Pan forwards a keyboard pan.
func (s *Screen) Pan(dx, dy float64) {
	if s.tap() {
		s.router.Pan(dx, dy)
	}
}

// Blur releases every held button when the window loses focus.
func (s *Screen) Blur() {
	if s.isClosed() {
		return
	}
	s.router.Blur()
}

// Pressed exposes the router's press state for dev.
func (s *Screen) Pressed(dev pointer.DeviceID) pointer.PressState {
	return s.router.Pressed(dev)
}

func (s *Screen) tap() bool {
	if s.isClosed() {
		return false
	}
	s.hide.HandleUserInteraction()
	return true
}

func (s *Screen) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Screen) edit(kind syncmgr.Kind, key string, value any) (engine.Record, *syncmgr.Op, error) {
	if s.isClosed() {
		return nil, nil, ErrClosed
	}
	s.hide.HandleUserInteraction()

	section := profile.SectionSettings
	if kind == syncmgr.KindState {
		section = profile.SectionState
	}
	field, _ := s.prof.Field(section, key)

	s.mu.Lock()
	current := s.settings
	if kind == syncmgr.KindState {
		current = s.runtime
	}
	current = current.Clone()
	s.mu.Unlock()

	var (
		next engine.Record
		op   *syncmgr.Op
		err  error
	)
	if kind == syncmgr.KindState {
		next, op, err = s.sync.UpdateStateOptimistic(s.ctx, current, key, value, field.Resync)
	} else {
		next, op, err = s.sync.UpdateSettingOptimistic(s.ctx, current, key, value, field.Resync)
	}
	if err != nil {
		s.log.Printf("screen: rejected %s edit %q: %v", kind, key, err)
		return current, nil, err
	}

	// The manager's copy already carries the edit, or its revert if the
	// engine answered first.
	local := s.sync.Current(kind)
	s.mu.Lock()
	if kind == syncmgr.KindState {
		s.runtime = local
	} else {
		s.settings = local
	}
	s.mu.Unlock()
	return next, op, nil
}

func (s *Screen) invoke(fn func() (engine.Record, engine.Record, error)) error {
	if s.isClosed() {
		return ErrClosed
	}
	s.hide.HandleUserInteraction()
	_, _, err := fn()
	s.store.RecordSync(err)
	return err
}

func (s *Screen) recordChanged(kind syncmgr.Kind, rec engine.Record) {
	s.mu.Lock()
	if kind == syncmgr.KindState {
		s.runtime = rec.Clone()
	} else {
		s.settings = rec.Clone()
	}
	s.mu.Unlock()
	if s.hooks.RecordChanged != nil {
		s.hooks.RecordChanged(kind, rec)
	}
}

func (s *Screen) visibilityChanged() {
	if s.hooks.Visibility != nil {
		s.hooks.Visibility(s.hide.State())
	}
}

// onInitialized runs on the channel's event goroutine, which also delivers
// responses, so the fetch must not block it.
func (s *Screen) onInitialized(json.RawMessage) {
	s.store.MarkInitialized()
	if s.hooks.Initialized != nil {
		s.hooks.Initialized()
	}
	go func() {
		if err := s.Resync(s.ctx); err != nil && !errors.Is(err, ErrClosed) {
			s.log.Printf("screen: initial sync failed: %v", err)
		}
	}()
}

func (s *Screen) onFPS(raw json.RawMessage) {
	var fps float64
	if err := json.Unmarshal(raw, &fps); err != nil {
		s.log.Printf("screen: bad fps payload %s: %v", raw, err)
		return
	}
	s.store.RecordFPS(fps)
	if s.hooks.FPS != nil {
		s.hooks.FPS(fps)
	}
}
