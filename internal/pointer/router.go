package pointer

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/five82/simdeck/internal/engine"
	"github.com/five82/simdeck/internal/timers"
)

const (
	DefaultZoomSensitivity = 0.001
	DefaultPanIdle         = 150 * time.Millisecond
)

// Button is a pointer button, numbered as the engine expects.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// pressable is every button a leave or blur force-releases.
var pressable = [...]Button{ButtonPrimary, ButtonMiddle, ButtonSecondary}

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonMiddle:
		return "middle"
	case ButtonSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// DeviceID identifies one pointer device.
type DeviceID int

// Mouse is the device id used for the system mouse.
const Mouse DeviceID = 1

// PressState is the bookkeeping for one device's held button.
type PressState struct {
	Active  bool
	Button  Button
	OriginX float64
	OriginY float64
}

// Event is a pointer event in CSS pixels.
type Event struct {
	Device DeviceID
	X, Y   float64
	Button Button
}

// WheelEvent is a wheel event in CSS pixels. Negative DeltaY scrolls toward
// the viewer.
type WheelEvent struct {
	X, Y   float64
	DeltaY float64
}

// Sender forwards a command without waiting for the engine. It is satisfied
// by *engine.Dispatcher, which logs failures instead of returning them.
type Sender interface {
	Send(command string, args any)
}

// Options configure a Router.
type Options struct {
	Sender Sender
	// DevicePixelRatio is consulted on every event. Nil means 1.
	DevicePixelRatio func() float64
	ZoomSensitivity  float64
	PanIdle          time.Duration
	Scheduler        timers.Scheduler
	Logger           *log.Logger
}

// Router turns CSS-space pointer, wheel and pan input into physical-pixel
// engine commands and guarantees every forwarded press is paired with a
// release.
type Router struct {
	send        Sender
	dpr         func() float64
	sensitivity float64
	panIdle     time.Duration
	sched       timers.Scheduler
	log         *log.Logger

	mu       sync.Mutex
	presses  map[DeviceID]PressState
	panning  bool
	panTimer timers.Timer
	panGen   uint64
}

// New builds a Router.
func New(opts Options) *Router {
	r := &Router{
		send:        opts.Sender,
		dpr:         opts.DevicePixelRatio,
		sensitivity: opts.ZoomSensitivity,
		panIdle:     opts.PanIdle,
		sched:       opts.Scheduler,
		log:         opts.Logger,
		presses:     make(map[DeviceID]PressState),
	}
	if r.dpr == nil {
		r.dpr = func() float64 { return 1 }
	}
	if r.sensitivity == 0 {
		r.sensitivity = DefaultZoomSensitivity
	}
	if r.panIdle <= 0 {
		r.panIdle = DefaultPanIdle
	}
	if r.sched == nil {
		r.sched = timers.Real{}
	}
	if r.log == nil {
		r.log = log.Default()
	}
	return r
}

// Pressed returns the press state recorded for dev.
func (r *Router) Pressed(dev DeviceID) PressState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presses[dev]
}

// Down records a press and forwards interaction-start.
func (r *Router) Down(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pressLocked(ev)
}

// Move forwards interaction-continue while the device is pressed, using the
// button recorded at press time.
func (r *Router) Move(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps := r.presses[ev.Device]
	if !ps.Active {
		return
	}
	x, y := r.physical(ev.X, ev.Y)
	r.send.Send(engine.CmdInteractionContinue, engine.InteractionArgs{ScreenX: x, ScreenY: y, Button: int(ps.Button)})
}

// Up forwards a release for the recorded button if the device was pressed.
// An unmatched up emits nothing.
func (r *Router) Up(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps := r.presses[ev.Device]
	if !ps.Active {
		return
	}
	if ev.Button != ps.Button {
		// The recorded button wins; a true mismatched release is swallowed.
		r.log.Printf("pointer: %s release while %s held; releasing %s", ev.Button, ps.Button, ps.Button)
	}
	delete(r.presses, ev.Device)
	r.send.Send(engine.CmdInteractionRelease, engine.ReleaseArgs{Button: int(ps.Button)})
}

// ContextMenu treats a context-menu request as a secondary press, since the
// platform swallows the natural press for that button.
func (r *Router) ContextMenu(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ps := r.presses[ev.Device]; ps.Active && ps.Button == ButtonSecondary {
		return
	}
	ev.Button = ButtonSecondary
	r.pressLocked(ev)
}

// Leave force-releases every pressable button for dev, pressed or not.
func (r *Router) Leave(dev DeviceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.presses, dev)
	r.releaseAllLocked()
}

// Blur force-releases every button on every device and stops panning.
func (r *Router) Blur() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.presses)
	r.releaseAllLocked()
	r.stopPanLocked()
}

// Wheel forwards zoom-to-cursor. It ignores press state and run state.
func (r *Router) Wheel(ev WheelEvent) {
	x, y := r.physical(ev.X, ev.Y)
	delta := -ev.DeltaY * r.sensitivity
	r.mu.Lock()
	defer r.mu.Unlock()
	r.send.Send(engine.CmdZoomToCursor, engine.ZoomArgs{Delta: delta, ScreenX: x, ScreenY: y})
}

// Pan forwards a camera pan in CSS pixels and stops it automatically after a
// quiet period with no further pan input.
func (r *Router) Pan(dx, dy float64) {
	ratio := r.ratio()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panning = true
	r.send.Send(engine.CmdPan, engine.PanArgs{DeltaX: dx * ratio, DeltaY: dy * ratio})

	if r.panTimer != nil {
		r.panTimer.Stop()
	}
	r.panGen++
	gen := r.panGen
	r.panTimer = r.sched.AfterFunc(r.panIdle, func() { r.panIdleFired(gen) })
}

// StopPan forwards stop-pan if a pan is in progress.
func (r *Router) StopPan() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopPanLocked()
}

// Close cancels the pan idle timer.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panTimer != nil {
		r.panTimer.Stop()
		r.panTimer = nil
	}
	r.panGen++
}

func (r *Router) pressLocked(ev Event) {
	if prev := r.presses[ev.Device]; prev.Active {
		// One press per device: close the old gesture before starting anew.
		r.send.Send(engine.CmdInteractionRelease, engine.ReleaseArgs{Button: int(prev.Button)})
	}
	r.presses[ev.Device] = PressState{Active: true, Button: ev.Button, OriginX: ev.X, OriginY: ev.Y}
	x, y := r.physical(ev.X, ev.Y)
	r.send.Send(engine.CmdInteractionStart, engine.InteractionArgs{ScreenX: x, ScreenY: y, Button: int(ev.Button)})
}

func (r *Router) releaseAllLocked() {
	for _, b := range pressable {
		r.send.Send(engine.CmdInteractionRelease, engine.ReleaseArgs{Button: int(b)})
	}
}

func (r *Router) stopPanLocked() {
	if r.panTimer != nil {
		r.panTimer.Stop()
		r.panTimer = nil
	}
	r.panGen++
	if !r.panning {
		return
	}
	r.panning = false
	r.send.Send(engine.CmdStopPan, nil)
}

func (r *Router) panIdleFired(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.panGen {
		return
	}
	r.panTimer = nil
	r.stopPanLocked()
}

func (r *Router) physical(x, y float64) (float64, float64) {
	ratio := r.ratio()
	return x * ratio, y * ratio
}

func (r *Router) ratio() float64 {
	ratio := r.dpr()
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 1
	}
	return ratio
}
