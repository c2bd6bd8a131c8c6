package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/simdeck/internal/pointer"
)

// surface maps terminal cells onto the CSS-pixel space the router expects.
// Each cell is cellW × cellH CSS pixels; an event is placed at the cell's
// centre.
type surface struct {
	cellW, cellH float64
	wheelStep    float64
}

func (s surface) css(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * s.cellW, (float64(y) + 0.5) * s.cellH
}

func buttonFor(b tea.MouseButton) (pointer.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return pointer.ButtonPrimary, true
	case tea.MouseButtonMiddle:
		return pointer.ButtonMiddle, true
	case tea.MouseButtonRight:
		return pointer.ButtonSecondary, true
	default:
		return 0, false
	}
}

// pointerSink is the part of *screen.Screen the mouse path drives.
type pointerSink interface {
	PointerDown(pointer.Event)
	PointerMove(pointer.Event)
	PointerUp(pointer.Event)
	ContextMenu(pointer.Event)
	Wheel(pointer.WheelEvent)
	Pressed(pointer.DeviceID) pointer.PressState
}

// routeMouse forwards one terminal mouse message. Terminals report the right
// button through their own menu handling, so a right press arrives as a
// context-menu request. Releases often carry no button; those are reported as
// the button recorded at press time.
func (s surface) routeMouse(sink pointerSink, msg tea.MouseMsg) {
	x, y := s.css(msg.X, msg.Y)

	if tea.MouseEvent(msg).IsWheel() {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			sink.Wheel(pointer.WheelEvent{X: x, Y: y, DeltaY: -s.wheelStep})
		case tea.MouseButtonWheelDown:
			sink.Wheel(pointer.WheelEvent{X: x, Y: y, DeltaY: s.wheelStep})
		}
		return
	}

	button, known := buttonFor(msg.Button)
	ev := pointer.Event{Device: pointer.Mouse, X: x, Y: y, Button: button}

	switch msg.Action {
	case tea.MouseActionPress:
		if !known {
			return
		}
		if button == pointer.ButtonSecondary {
			sink.ContextMenu(ev)
			return
		}
		sink.PointerDown(ev)
	case tea.MouseActionMotion:
		sink.PointerMove(ev)
	case tea.MouseActionRelease:
		if !known {
			ev.Button = sink.Pressed(pointer.Mouse).Button
		}
		sink.PointerUp(ev)
	}
}

// heldThroughOverlay reports whether msg continues a mouse press that began
// before an overlay opened. Overlays swallow new mouse input, but a held
// button still moves and releases.
func heldThroughOverlay(sink pointerSink, msg tea.MouseMsg) bool {
	if tea.MouseEvent(msg).IsWheel() || !sink.Pressed(pointer.Mouse).Active {
		return false
	}
	return msg.Action == tea.MouseActionRelease || msg.Action == tea.MouseActionMotion
}
