package screen

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/five82/simdeck/internal/autohide"
	"github.com/five82/simdeck/internal/engine"
	"github.com/five82/simdeck/internal/engine/enginetest"
	"github.com/five82/simdeck/internal/pointer"
	"github.com/five82/simdeck/internal/profile"
	"github.com/five82/simdeck/internal/syncmgr"
	"github.com/five82/simdeck/internal/timers"
)

func grayScott(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.Builtin().Lookup("gray-scott")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return p
}

func newFake() *enginetest.Fake {
	return enginetest.NewWithRecords(
		engine.Record{"feed_rate": 0.055, "kill_rate": 0.062, "nutrient_pattern": "uniform"},
		engine.Record{"cursor_size": 10.0, "current_color_scheme": "viridis"},
	)
}

type testScreen struct {
	*Screen
	fake  *enginetest.Fake
	clock *timers.Manual
}

func newTestScreen(t *testing.T, hooks Hooks) *testScreen {
	t.Helper()
	fake := newFake()
	clock := timers.NewManual()
	s, err := New(Options{
		Channel:          fake,
		Profile:          grayScott(t),
		DevicePixelRatio: func() float64 { return 2 },
		Scheduler:        clock,
		Logger:           log.New(io.Discard, "", 0),
		Hooks:            hooks,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return &testScreen{Screen: s, fake: fake, clock: clock}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func (ts *testScreen) flush(t *testing.T) {
	t.Helper()
	if err := ts.dispatch.Flush(testContext(t)); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNew_RequiresChannelAndProfile(t *testing.T) {
	if _, err := New(Options{Profile: grayScott(t)}); err == nil {
		t.Fatalf("New without channel: want error")
	}
	if _, err := New(Options{Channel: enginetest.New()}); err == nil {
		t.Fatalf("New without profile: want error")
	}
}

func TestStart_SubscribesAndStartsSimulation(t *testing.T) {
	ts := newTestScreen(t, Hooks{})
	if err := ts.Start(testContext(t)); err != nil {
		t.Fatalf("Start: %v", err)
	}

	calls := ts.fake.CallsTo(engine.CmdStartSimulation)
	if len(calls) != 1 {
		t.Fatalf("start-simulation calls = %d, want 1", len(calls))
	}
	if got := calls[0].Args.(engine.StartArgs); got.Kind != "gray-scott" {
		t.Fatalf("start kind = %q, want gray-scott", got.Kind)
	}
	for _, ev := range []string{engine.EventSimulationInitialized, engine.EventFPSUpdate} {
		if n := ts.fake.Subscribers(ev); n != 1 {
			t.Fatalf("subscribers(%s) = %d, want 1", ev, n)
		}
	}
	snap := ts.Store().Snapshot()
	if snap.Simulation != "gray-scott" || !snap.Running || snap.Initialized {
		t.Fatalf("snapshot = %+v, want running, not yet initialized", snap)
	}
}

func TestStart_FailureIsRecorded(t *testing.T) {
	ts := newTestScreen(t, Hooks{})
	ts.fake.Fail(engine.CmdStartSimulation, engine.CodeInternal)

	err := ts.Start(testContext(t))
	if !engine.IsRemote(err, engine.CodeInternal) {
		t.Fatalf("Start error = %v, want remote internal error", err)
	}
	if ts.Store().Snapshot().ConsecutiveFailures != 1 {
		t.Fatalf("failure not recorded in store")
	}
}

func TestInitialized_FetchesBothRecords(t *testing.T) {
	var initialized sync.WaitGroup
	initialized.Add(1)
	ts := newTestScreen(t, Hooks{Initialized: initialized.Done})
	if err := ts.Start(testContext(t)); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ts.fake.Emit(engine.EventSimulationInitialized, nil)
	initialized.Wait()

	waitFor(t, "records", func() bool {
		return ts.Settings()["feed_rate"] == 0.055 && ts.RuntimeState()["current_color_scheme"] == "viridis"
	})
	if !ts.Store().Snapshot().Initialized {
		t.Fatalf("store not marked initialized")
	}
}

func TestFPSUpdate_FeedsStoreAndHook(t *testing.T) {
	var got float64
	ts := newTestScreen(t, Hooks{FPS: func(fps float64) { got = fps }})
	if err := ts.Start(testContext(t)); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ts.fake.Emit(engine.EventFPSUpdate, 42.5)
	if got != 42.5 {
		t.Fatalf("hook fps = %v, want 42.5", got)
	}
	if fps := ts.Store().Snapshot().FPS; fps != 42.5 {
		t.Fatalf("store fps = %v, want 42.5", fps)
	}

	ts.fake.Emit(engine.EventFPSUpdate, "fast")
	if fps := ts.Store().Snapshot().FPS; fps != 42.5 {
		t.Fatalf("store fps = %v after bad payload, want 42.5", fps)
	}
}

func TestEditSetting_ReturnsOptimisticRecordThenPersists(t *testing.T) {
	ts := newTestScreen(t, Hooks{})
	ctx := testContext(t)
	if err := ts.Resync(ctx); err != nil {
		t.Fatalf("Resync: %v", err)
	}

	next, op, err := ts.EditSetting("feed_rate", 0.06)
	if err != nil {
		t.Fatalf("EditSetting: %v", err)
	}
	if next["feed_rate"] != 0.06 || next["kill_rate"] != 0.062 {
		t.Fatalf("optimistic record = %v, want edit applied over current", next)
	}
	if ts.Settings()["feed_rate"] != 0.06 {
		t.Fatalf("screen view = %v, want edit visible", ts.Settings())
	}
	if _, err := op.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ts.fake.Settings()["feed_rate"] != 0.06 {
		t.Fatalf("engine settings = %v, want feed_rate persisted", ts.fake.Settings())
	}
	if n := len(ts.fake.CallsTo(engine.CmdGetSettings)); n != 1 {
		t.Fatalf("get-settings calls = %d, want only the initial resync", n)
	}
}

func TestEditSetting_ResyncFieldFetchesAuthoritativeRecord(t *testing.T) {
	ts := newTestScreen(t, Hooks{})
	ctx := testContext(t)

	_, op, err := ts.EditSetting("nutrient_pattern", "checkerboard")
	if err != nil {
		t.Fatalf("EditSetting: %v", err)
	}
	rec, err := op.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if rec["nutrient_pattern"] != "checkerboard" || rec["kill_rate"] != 0.062 {
		t.Fatalf("resynced record = %v, want authoritative record", rec)
	}
	if n := len(ts.fake.CallsTo(engine.CmdGetSettings)); n != 1 {
		t.Fatalf("get-settings calls = %d, want 1", n)
	}
}

func TestEdit_InvalidValuesNeverReachEngine(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(s *Screen) error
		isErr error
	}{
		{"out of range", func(s *Screen) error { _, _, err := s.EditSetting("feed_rate", 5.0); return err }, syncmgr.ErrInvalidValue},
		{"nan", func(s *Screen) error { _, _, err := s.EditSetting("kill_rate", math.NaN()); return err }, syncmgr.ErrInvalidValue},
		{"unknown enum", func(s *Screen) error { _, _, err := s.EditSetting("nutrient_pattern", "spiral"); return err }, syncmgr.ErrInvalidValue},
		{"bad text", func(s *Screen) error {
			_, _, err := s.EditText(profile.SectionState, "cursor_size", "big")
			return err
		}, syncmgr.ErrInvalidValue},
		{"unknown field", func(s *Screen) error {
			_, _, err := s.EditText(profile.SectionSettings, "gravity", "1")
			return err
		}, profile.ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestScreen(t, Hooks{})
			err := tt.edit(ts.Screen)
			if !errors.Is(err, tt.isErr) {
				t.Fatalf("error = %v, want %v", err, tt.isErr)
			}
			if calls := ts.fake.Calls(); len(calls) != 0 {
				t.Fatalf("engine saw %v, want no commands", calls)
			}
		})
	}
}

func TestEditText_ParsesByFieldKind(t *testing.T) {
	ts := newTestScreen(t, Hooks{})
	next, op, err := ts.EditText(profile.SectionState, "cursor_size", " 12 ")
	if err != nil {
		t.Fatalf("EditText: %v", err)
	}
	if next["cursor_size"] != 12.0 {
		t.Fatalf("cursor_size = %#v, want 12.0", next["cursor_size"])
	}
	if _, err := op.Wait(testContext(t)); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	calls := ts.fake.CallsTo(engine.CmdUpdateState)
	if len(calls) != 1 {
		t.Fatalf("update-state calls = %d, want 1", len(calls))
	}
	if a := calls[0].Args.(engine.UpdateStateArgs); a.StateName != "cursor_size" || a.Value != 12.0 {
		t.Fatalf("update-state args = %+v", a)
	}
}

func TestTogglePause_KeepsVisibilityAndCameraControls(t *testing.T) {
	ts := newTestScreen(t, Hooks{})
	ts.ToggleUI()

	if running := ts.TogglePause(); running {
		t.Fatalf("TogglePause = running, want paused")
	}
	v := ts.Visibility()
	if v.Running || !v.ControlsVisible || v.ShowUI {
		t.Fatalf("visibility after pause = %+v", v)
	}
	if ts.Store().Snapshot().Running {
		t.Fatalf("store still running after pause")
	}

	ts.PointerDown(pointer.Event{Device: pointer.Mouse, X: 10, Y: 10, Button: pointer.ButtonPrimary})
	ts.PointerMove(pointer.Event{Device: pointer.Mouse, X: 50, Y: 50, Button: pointer.ButtonPrimary})
	ts.Wheel(pointer.WheelEvent{X: 50, Y: 50, DeltaY: -100})
	ts.PointerUp(pointer.Event{Device: pointer.Mouse, X: 50, Y: 50, Button: pointer.ButtonPrimary})

	if running := ts.TogglePause(); !running {
		t.Fatalf("TogglePause = paused, want running")
	}
	ts.flush(t)

	want := []string{
		engine.CmdPauseSimulation,
		engine.CmdInteractionStart,
		engine.CmdInteractionContinue,
		engine.CmdZoomToCursor,
		engine.CmdInteractionRelease,
		engine.CmdResumeSimulation,
	}
	if got := ts.fake.Commands(); !slices.Equal(got, want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	cont := ts.fake.CallsTo(engine.CmdInteractionContinue)[0].Args.(engine.InteractionArgs)
	if cont.ScreenX != 100 || cont.ScreenY != 100 {
		t.Fatalf("continue at (%v,%v), want (100,100)", cont.ScreenX, cont.ScreenY)
	}
}

func TestPointerInput_RestoresHiddenControls(t *testing.T) {
	var mu sync.Mutex
	var seen []autohide.State
	ts := newTestScreen(t, Hooks{Visibility: func(s autohide.State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	}})

	if show := ts.ToggleUI(); show {
		t.Fatalf("ToggleUI = shown, want hidden")
	}
	ts.clock.Advance(autohide.DefaultAutoHideDelay)
	if v := ts.Visibility(); v.ControlsVisible || !v.CursorHidden {
		t.Fatalf("visibility = %+v, want controls and cursor hidden", v)
	}

	ts.Wheel(pointer.WheelEvent{X: 1, Y: 1, DeltaY: 10})
	if v := ts.Visibility(); !v.ControlsVisible || v.CursorHidden {
		t.Fatalf("visibility after wheel = %+v, want shown", v)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || !seen[len(seen)-1].ControlsVisible {
		t.Fatalf("visibility hook saw %v, want final state visible", seen)
	}
}

func TestBlur_ReleasesHeldButton(t *testing.T) {
	ts := newTestScreen(t, Hooks{})
	ts.ContextMenu(pointer.Event{Device: pointer.Mouse, X: 3, Y: 4})
	ts.Blur()
	ts.flush(t)

	if ts.Pressed(pointer.Mouse).Active {
		t.Fatalf("press still active after blur")
	}
	var released []int
	for _, c := range ts.fake.CallsTo(engine.CmdInteractionRelease) {
		released = append(released, c.Args.(engine.ReleaseArgs).Button)
	}
	if !slices.Equal(released, []int{0, 1, 2}) {
		t.Fatalf("releases = %v, want [0 1 2]", released)
	}
}

func TestPresetRandomizeReset_ResyncBothRecords(t *testing.T) {
	tests := []struct {
		name    string
		command string
		run     func(context.Context, *Screen) error
	}{
		{"preset", engine.CmdApplyPreset, func(ctx context.Context, s *Screen) error { return s.ApplyPreset(ctx, "Mitosis") }},
		{"randomize", engine.CmdRandomize, func(ctx context.Context, s *Screen) error { return s.Randomize(ctx) }},
		{"reset", engine.CmdResetSettings, func(ctx context.Context, s *Screen) error { return s.Reset(ctx) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestScreen(t, Hooks{})
			ts.fake.Handle(tt.command, func(context.Context, any) (any, error) {
				ts.fake.SetSetting("feed_rate", 0.011)
				return nil, nil
			})
			if err := tt.run(testContext(t), ts.Screen); err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			want := []string{tt.command, engine.CmdGetSettings, engine.CmdGetState}
			if got := ts.fake.Commands(); !slices.Equal(got, want) {
				t.Fatalf("commands = %v, want %v", got, want)
			}
			if ts.Settings()["feed_rate"] != 0.011 {
				t.Fatalf("settings = %v, want engine's new value", ts.Settings())
			}
		})
	}
}

func TestApplyPreset_FailureIsLoggedNotRetried(t *testing.T) {
	ts := newTestScreen(t, Hooks{})
	ts.fake.Fail(engine.CmdApplyPreset, engine.CodeInternal)

	if err := ts.ApplyPreset(testContext(t), "Mitosis"); err == nil {
		t.Fatalf("ApplyPreset: want error")
	}
	if n := len(ts.fake.Calls()); n != 1 {
		t.Fatalf("engine calls = %d, want a single attempt", n)
	}
	if ts.Store().Snapshot().ConsecutiveFailures != 1 {
		t.Fatalf("failure not recorded in store")
	}
}

func TestClose_TearsDownExactlyOnce(t *testing.T) {
	ts := newTestScreen(t, Hooks{})
	if err := ts.Start(testContext(t)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ts.PointerDown(pointer.Event{Device: pointer.Mouse, X: 1, Y: 1, Button: pointer.ButtonMiddle})
	ts.ToggleUI()

	ts.Close()
	ts.Close()

	cmds := ts.fake.Commands()
	if cmds[len(cmds)-1] != engine.CmdDestroySimulation {
		t.Fatalf("commands = %v, want destroy-simulation last", cmds)
	}
	destroyed := 0
	for _, c := range cmds {
		if c == engine.CmdDestroySimulation {
			destroyed++
		}
	}
	if destroyed != 1 {
		t.Fatalf("destroy-simulation sent %d times, want 1", destroyed)
	}
	for _, ev := range []string{engine.EventSimulationInitialized, engine.EventFPSUpdate} {
		if n := ts.fake.Subscribers(ev); n != 0 {
			t.Fatalf("subscribers(%s) = %d after Close, want 0", ev, n)
		}
	}
	if ts.clock.Pending() != 0 {
		t.Fatalf("timers still armed after Close: %d", ts.clock.Pending())
	}

	before := len(ts.fake.Calls())
	ts.PointerDown(pointer.Event{Device: pointer.Mouse, Button: pointer.ButtonPrimary})
	ts.TogglePause()
	if _, _, err := ts.EditSetting("feed_rate", 0.01); !errors.Is(err, ErrClosed) {
		t.Fatalf("EditSetting after Close = %v, want ErrClosed", err)
	}
	if err := ts.Start(testContext(t)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Start after Close = %v, want ErrClosed", err)
	}
	if after := len(ts.fake.Calls()); after != before {
		t.Fatalf("engine saw %d calls after Close", after-before)
	}
}
