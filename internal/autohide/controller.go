// Package autohide decides when floating controls and the pointer cursor
// should be shown or hidden.
//
// Controls hide after a quiet period and reappear on any interaction, so they
// never vanish mid-adjustment. While the main GUI is hidden the cursor hides
// too, but strictly after the controls. Pausing the simulation does not touch
// visibility: camera controls keep working while paused.
package autohide

import (
	"sync"
	"time"

	"github.com/five82/simdeck/internal/timers"
)

const (
	DefaultAutoHideDelay   = 3 * time.Second
	DefaultCursorHideDelay = 2 * time.Second
)

// Config holds the two delays.
type Config struct {
	AutoHideDelay   time.Duration
	CursorHideDelay time.Duration
}

// DefaultConfig returns the standard delays.
func DefaultConfig() Config {
	return Config{AutoHideDelay: DefaultAutoHideDelay, CursorHideDelay: DefaultCursorHideDelay}
}

// Callbacks deliver visibility effects to the owning screen. Nil callbacks
// are skipped. They are never called while the controller's state lock is
// held, but delivery is serialized with Cleanup, so a callback must not call
// Cleanup.
type Callbacks struct {
	ShowControls func()
	HideControls func()
	ShowCursor   func()
	HideCursor   func()
}

// State is a snapshot of the visibility state machine.
type State struct {
	ControlsVisible bool
	CursorHidden    bool
	ShowUI          bool
	Running         bool
}

// Controller is one screen's visibility state machine.
type Controller struct {
	cfg   Config
	cb    Callbacks
	sched timers.Scheduler

	// fx serializes callback delivery against Cleanup. Lock order is fx
	// before mu.
	fx sync.Mutex

	mu            sync.Mutex
	state         State
	controlsTimer timers.Timer
	cursorTimer   timers.Timer
	controlsGen   uint64
	cursorGen     uint64
	closed        bool
}

// New returns a controller with controls visible, cursor shown, GUI shown and
// the simulation running. A nil scheduler uses the wall clock.
func New(cfg Config, cb Callbacks, sched timers.Scheduler) *Controller {
	if cfg.AutoHideDelay <= 0 {
		cfg.AutoHideDelay = DefaultAutoHideDelay
	}
	if cfg.CursorHideDelay <= 0 {
		cfg.CursorHideDelay = DefaultCursorHideDelay
	}
	if sched == nil {
		sched = timers.Real{}
	}
	return &Controller{
		cfg:   cfg,
		cb:    cb,
		sched: sched,
		state: State{ControlsVisible: true, ShowUI: true, Running: true},
	}
}

// State returns the current visibility state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HandleUserInteraction shows controls and cursor and restarts the hide
// countdowns.
func (c *Controller) HandleUserInteraction() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	effects := c.showAllLocked()
	c.armControlsLocked()
	if !c.state.ShowUI {
		c.armCursorLocked()
	}
	c.mu.Unlock()
	c.deliver(effects)
}

// HandleUIToggle records whether the main GUI is shown. Hiding it starts the
// countdowns; showing it cancels them and forces controls visible.
func (c *Controller) HandleUIToggle(showUI bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.ShowUI = showUI
	effects := c.showAllLocked()
	if showUI {
		c.cancelLocked()
	} else {
		c.armControlsLocked()
		c.armCursorLocked()
	}
	c.mu.Unlock()
	c.deliver(effects)
}

// HandlePause marks the simulation paused. Visibility is unaffected.
func (c *Controller) HandlePause() {
	c.setRunning(false)
}

// HandleResume marks the simulation running. Visibility is unaffected.
func (c *Controller) HandleResume() {
	c.setRunning(true)
}

// Cleanup cancels both timers. After it returns no callback fires again and
// every other method is a no-op.
func (c *Controller) Cleanup() {
	c.fx.Lock()
	defer c.fx.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancelLocked()
}

func (c *Controller) setRunning(running bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.Running = running
}

func (c *Controller) showAllLocked() []func() {
	c.state.ControlsVisible = true
	c.state.CursorHidden = false
	return []func(){c.cb.ShowControls, c.cb.ShowCursor}
}

func (c *Controller) armControlsLocked() {
	if c.controlsTimer != nil {
		c.controlsTimer.Stop()
	}
	c.controlsGen++
	gen := c.controlsGen
	c.controlsTimer = c.sched.AfterFunc(c.cfg.AutoHideDelay, func() { c.controlsFired(gen) })
}

func (c *Controller) armCursorLocked() {
	if c.cursorTimer != nil {
		c.cursorTimer.Stop()
	}
	c.cursorGen++
	gen := c.cursorGen
	c.cursorTimer = c.sched.AfterFunc(c.cfg.CursorHideDelay, func() { c.cursorFired(gen) })
}

func (c *Controller) cancelLocked() {
	if c.controlsTimer != nil {
		c.controlsTimer.Stop()
		c.controlsTimer = nil
	}
	if c.cursorTimer != nil {
		c.cursorTimer.Stop()
		c.cursorTimer = nil
	}
	// A callback already racing past Stop sees a stale generation.
	c.controlsGen++
	c.cursorGen++
}

func (c *Controller) controlsFired(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.controlsGen {
		c.mu.Unlock()
		return
	}
	c.controlsTimer = nil
	c.state.ControlsVisible = false
	effects := []func(){c.cb.HideControls}
	if !c.state.ShowUI && !c.state.CursorHidden {
		c.state.CursorHidden = true
		effects = append(effects, c.cb.HideCursor)
	}
	c.mu.Unlock()
	c.deliver(effects)
}

func (c *Controller) cursorFired(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.cursorGen {
		c.mu.Unlock()
		return
	}
	c.cursorTimer = nil
	if c.state.ShowUI || c.state.ControlsVisible || c.state.CursorHidden {
		c.mu.Unlock()
		return
	}
	c.state.CursorHidden = true
	c.mu.Unlock()
	c.deliver([]func(){c.cb.HideCursor})
}

// deliver runs effects unless Cleanup has completed since they were decided.
func (c *Controller) deliver(effects []func()) {
	c.fx.Lock()
	defer c.fx.Unlock()
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	run(effects)
}

func run(effects []func()) {
	for _, fn := range effects {
		if fn != nil {
			fn()
		}
	}
}
