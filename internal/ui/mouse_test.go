package ui

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/simdeck/internal/pointer"
)

// sinkRecorder records calls in the order the mouse path makes them.
type sinkRecorder struct {
	calls   []string
	pressed pointer.PressState
}

func (s *sinkRecorder) PointerDown(ev pointer.Event) {
	s.calls = append(s.calls, fmt.Sprintf("down %v %.0f,%.0f", ev.Button, ev.X, ev.Y))
	s.pressed = pointer.PressState{Active: true, Button: ev.Button}
}

func (s *sinkRecorder) PointerMove(ev pointer.Event) {
	s.calls = append(s.calls, fmt.Sprintf("move %.0f,%.0f", ev.X, ev.Y))
}

func (s *sinkRecorder) PointerUp(ev pointer.Event) {
	s.calls = append(s.calls, fmt.Sprintf("up %v", ev.Button))
	s.pressed = pointer.PressState{}
}

func (s *sinkRecorder) ContextMenu(ev pointer.Event) {
	s.calls = append(s.calls, fmt.Sprintf("menu %.0f,%.0f", ev.X, ev.Y))
	s.pressed = pointer.PressState{Active: true, Button: pointer.ButtonSecondary}
}

func (s *sinkRecorder) Wheel(ev pointer.WheelEvent) {
	s.calls = append(s.calls, fmt.Sprintf("wheel %.0f", ev.DeltaY))
}

func (s *sinkRecorder) Pressed(pointer.DeviceID) pointer.PressState {
	return s.pressed
}

func testSurface() surface {
	return surface{cellW: 8, cellH: 16, wheelStep: 100}
}

func TestSurfaceCSS_CellCentre(t *testing.T) {
	x, y := testSurface().css(10, 3)
	if x != 84 || y != 56 {
		t.Fatalf("css(10, 3) = (%v, %v), want (84, 56)", x, y)
	}
}

func TestRouteMouse(t *testing.T) {
	tests := []struct {
		name string
		msgs []tea.MouseMsg
		want []string
	}{
		{
			name: "left drag",
			msgs: []tea.MouseMsg{
				{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
				{X: 1, Y: 0, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft},
				{X: 1, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
			},
			want: []string{"down primary 4,8", "move 12,8", "up primary"},
		},
		{
			name: "middle press",
			msgs: []tea.MouseMsg{
				{X: 0, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonMiddle},
			},
			want: []string{"down middle 4,24"},
		},
		{
			name: "right press is a context menu",
			msgs: []tea.MouseMsg{
				{X: 2, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonRight},
			},
			want: []string{"menu 20,40"},
		},
		{
			name: "release without button uses recorded button",
			msgs: []tea.MouseMsg{
				{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonMiddle},
				{X: 0, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone},
			},
			want: []string{"down middle 4,8", "up middle"},
		},
		{
			name: "wheel",
			msgs: []tea.MouseMsg{
				{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp},
				{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown},
			},
			want: []string{"wheel -100", "wheel 100"},
		},
		{
			name: "unknown press ignored",
			msgs: []tea.MouseMsg{
				{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonBackward},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &sinkRecorder{}
			s := testSurface()
			for _, msg := range tt.msgs {
				s.routeMouse(sink, msg)
			}
			if fmt.Sprint(sink.calls) != fmt.Sprint(tt.want) {
				t.Fatalf("calls = %q, want %q", sink.calls, tt.want)
			}
		})
	}
}
