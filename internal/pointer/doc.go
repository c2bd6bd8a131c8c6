// Package pointer routes raw pointer, wheel and pan input to the engine.
//
// # Coordinates
//
// Input arrives in CSS pixels. Every event, of every kind, is converted with
// physical = css × devicePixelRatio, reading the ratio fresh each time.
//
// # Press Pairing
//
// Each device holds at most one PressState. A press forwards
// interaction-start and records the button; moves forward
// interaction-continue with the recorded button, not the one the move
// reports; an up forwards interaction-release only if the device was pressed.
// A release reporting a different button than the recorded one releases the
// recorded button. Leaving the surface or losing focus force-releases
// primary, middle and secondary regardless of state, so the engine never
// keeps a stuck press.
//
// A context-menu request is treated as a secondary press because the
// platform suppresses the natural press for that button.
//
// # Wheel and Pan
//
// Wheel input is forwarded as zoom-to-cursor whatever the press or run
// state; camera navigation works while the simulation is paused. Keyboard
// panning forwards pan and sends stop-pan after a short idle period.
//
// # Failures
//
// Commands go through a Sender that never blocks and never returns errors.
// With *engine.Dispatcher a rejected command is logged and the next gesture
// proceeds normally.
package pointer
