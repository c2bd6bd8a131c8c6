package autohide

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/simdeck/internal/timers"
)

type counts struct {
	showControls, hideControls, showCursor, hideCursor int
}

func newTestController(cfg Config) (*Controller, *timers.Manual, *counts) {
	clock := timers.NewManual()
	n := &counts{}
	c := New(cfg, Callbacks{
		ShowControls: func() { n.showControls++ },
		HideControls: func() { n.hideControls++ },
		ShowCursor:   func() { n.showCursor++ },
		HideCursor:   func() { n.hideCursor++ },
	}, clock)
	return c, clock, n
}

func TestNew_InitialState(t *testing.T) {
	c, clock, _ := newTestController(Config{})
	got := c.State()
	want := State{ControlsVisible: true, CursorHidden: false, ShowUI: true, Running: true}
	if got != want {
		t.Fatalf("State = %+v, want %+v", got, want)
	}
	if clock.Pending() != 0 {
		t.Fatalf("Pending = %d, want no timers before any input", clock.Pending())
	}
	if c.cfg != DefaultConfig() {
		t.Fatalf("cfg = %+v, want defaults", c.cfg)
	}
}

func TestGUIHidden_ControlsHideExactlyOnceWithCursor(t *testing.T) {
	c, clock, n := newTestController(DefaultConfig())
	c.HandleUIToggle(false)

	clock.Advance(DefaultAutoHideDelay - time.Millisecond)
	if s := c.State(); !s.ControlsVisible || s.CursorHidden {
		t.Fatalf("state before delay = %+v, want controls and cursor visible", s)
	}

	clock.Advance(time.Millisecond)
	s := c.State()
	if s.ControlsVisible || !s.CursorHidden {
		t.Fatalf("state after delay = %+v, want controls and cursor hidden", s)
	}

	clock.Advance(10 * DefaultAutoHideDelay)
	if n.hideControls != 1 {
		t.Fatalf("HideControls called %d times, want 1", n.hideControls)
	}
	if n.hideCursor != 1 {
		t.Fatalf("HideCursor called %d times, want 1", n.hideCursor)
	}
}

func TestGUIHidden_CursorNeverHidesBeforeControls(t *testing.T) {
	c, clock, _ := newTestController(DefaultConfig())
	c.HandleUIToggle(false)

	// Cursor timer (2s) fires first but controls are still up.
	clock.Advance(DefaultCursorHideDelay + 500*time.Millisecond)
	if s := c.State(); s.CursorHidden || !s.ControlsVisible {
		t.Fatalf("state at 2.5s = %+v, want cursor still shown", s)
	}
	clock.Advance(500 * time.Millisecond)
	if s := c.State(); !s.CursorHidden || s.ControlsVisible {
		t.Fatalf("state at 3s = %+v, want both hidden", s)
	}
}

func TestGUIHidden_InteractionBeforeCursorDelayKeepsCursor(t *testing.T) {
	c, clock, n := newTestController(DefaultConfig())
	c.HandleUIToggle(false)

	clock.Advance(1500 * time.Millisecond)
	c.HandleUserInteraction()
	clock.Advance(1900 * time.Millisecond)

	if s := c.State(); s.CursorHidden || !s.ControlsVisible {
		t.Fatalf("state = %+v, want cursor and controls visible", s)
	}
	if n.hideCursor != 0 {
		t.Fatalf("HideCursor called %d times, want 0", n.hideCursor)
	}
}

func TestGUIHidden_LongCursorDelayStillHidesWithControls(t *testing.T) {
	c, clock, n := newTestController(Config{AutoHideDelay: time.Second, CursorHideDelay: 5 * time.Second})
	c.HandleUIToggle(false)

	clock.Advance(time.Second)
	if s := c.State(); !s.CursorHidden || s.ControlsVisible {
		t.Fatalf("state = %+v, want cursor hidden with controls", s)
	}
	clock.Advance(10 * time.Second)
	if n.hideCursor != 1 {
		t.Fatalf("HideCursor called %d times, want 1", n.hideCursor)
	}
}

func TestGUIVisible_ControlsAutoHideButCursorStays(t *testing.T) {
	c, clock, n := newTestController(DefaultConfig())
	c.HandleUserInteraction()
	clock.Advance(DefaultAutoHideDelay)

	s := c.State()
	if s.ControlsVisible {
		t.Fatalf("controls still visible after delay")
	}
	if s.CursorHidden || n.hideCursor != 0 {
		t.Fatalf("cursor hidden while GUI visible: %+v (hideCursor=%d)", s, n.hideCursor)
	}
}

func TestHandleUserInteraction_ResetsCountdown(t *testing.T) {
	c, clock, n := newTestController(DefaultConfig())
	for i := 0; i < 5; i++ {
		c.HandleUserInteraction()
		clock.Advance(2 * time.Second)
	}
	if !c.State().ControlsVisible || n.hideControls != 0 {
		t.Fatalf("controls hidden during continuous interaction (hideControls=%d)", n.hideControls)
	}
	if n.showControls != 5 || n.showCursor != 5 {
		t.Fatalf("show callbacks = %d/%d, want 5/5 (unconditional)", n.showControls, n.showCursor)
	}
}

func TestHandleUIToggle_ShowingGUICancelsTimers(t *testing.T) {
	c, clock, n := newTestController(DefaultConfig())
	c.HandleUIToggle(false)
	clock.Advance(DefaultAutoHideDelay)
	if c.State().ControlsVisible {
		t.Fatalf("controls visible after hide delay")
	}

	c.HandleUserInteraction()
	c.HandleUIToggle(true)
	if clock.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0 after showing GUI", clock.Pending())
	}
	clock.Advance(time.Minute)

	s := c.State()
	if !s.ControlsVisible || s.CursorHidden || !s.ShowUI {
		t.Fatalf("state = %+v, want everything visible", s)
	}
	if n.hideControls != 1 {
		t.Fatalf("HideControls called %d times, want 1", n.hideControls)
	}
}

func TestPauseResume_DoNotAffectVisibility(t *testing.T) {
	c, clock, _ := newTestController(DefaultConfig())
	c.HandleUIToggle(false)
	c.HandlePause()

	s := c.State()
	if s.Running || !s.ControlsVisible {
		t.Fatalf("state after pause = %+v, want paused with controls visible", s)
	}
	if clock.Pending() != 2 {
		t.Fatalf("Pending = %d, want timers untouched by pause", clock.Pending())
	}

	clock.Advance(DefaultAutoHideDelay)
	c.HandleResume()
	s = c.State()
	if !s.Running || s.ControlsVisible {
		t.Fatalf("state after resume = %+v, want running with controls still hidden", s)
	}
}

func TestCleanup_StopsAllCallbacks(t *testing.T) {
	c, clock, n := newTestController(DefaultConfig())
	c.HandleUIToggle(false)
	before := *n

	c.Cleanup()
	c.Cleanup()
	if clock.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0 after Cleanup", clock.Pending())
	}

	c.HandleUserInteraction()
	c.HandleUIToggle(true)
	c.HandlePause()
	clock.Advance(time.Minute)

	if *n != before {
		t.Fatalf("callbacks after Cleanup: before %+v, after %+v", before, *n)
	}
	if !c.State().Running {
		t.Fatalf("HandlePause changed state after Cleanup")
	}
}

func TestStaleTimerFireIsIgnored(t *testing.T) {
	c, _, n := newTestController(DefaultConfig())
	c.HandleUserInteraction()

	c.mu.Lock()
	stale := c.controlsGen
	c.mu.Unlock()

	c.HandleUserInteraction()
	c.controlsFired(stale)
	if !c.State().ControlsVisible || n.hideControls != 0 {
		t.Fatalf("stale fire hid controls")
	}
}

func TestCleanup_WaitsForInFlightCallback(t *testing.T) {
	clock := timers.NewManual()
	entered := make(chan struct{})
	release := make(chan struct{})
	var hides atomic.Int32
	c := New(DefaultConfig(), Callbacks{
		HideControls: func() {
			if hides.Add(1) == 1 {
				close(entered)
				<-release
			}
		},
	}, clock)
	c.HandleUserInteraction()

	go clock.Advance(DefaultAutoHideDelay)
	<-entered

	cleaned := make(chan struct{})
	go func() {
		c.Cleanup()
		close(cleaned)
	}()
	select {
	case <-cleaned:
		t.Fatal("Cleanup returned while HideControls was still running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	select {
	case <-cleaned:
	case <-time.After(time.Second):
		t.Fatal("Cleanup did not return after the callback finished")
	}

	c.HandleUserInteraction()
	clock.Advance(10 * DefaultAutoHideDelay)
	if got := hides.Load(); got != 1 {
		t.Fatalf("HideControls called %d times, want 1", got)
	}
}

func TestDeliver_SkipsEffectsDecidedBeforeCleanup(t *testing.T) {
	c, _, n := newTestController(DefaultConfig())
	c.Cleanup()
	c.deliver([]func(){c.cb.HideControls, c.cb.HideCursor})
	if n.hideControls != 0 || n.hideCursor != 0 {
		t.Fatalf("callbacks after Cleanup = %+v, want none", *n)
	}
}
