// Package ui provides the terminal front end for a simulation screen.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds a *screen.Screen and renders
// its state; every mutation goes through the screen, which owns the sync
// manager, the auto-hide controller and the pointer router. Screen hooks
// reach the program through a Relay, a non-blocking queue drained by one
// goroutine into Program.Send.
//
// # Layout
//
//   - Header: simulation title, run badge, FPS, connection state and the
//     time since the last successful sync
//   - Control panel: the settings or runtime-state fields of the active
//     profile, one selected at a time
//   - Footer: the last status message and short help
//
// Header and footer are shown while the auto-hide controller reports
// controls visible. The control panel is shown while the GUI is toggled on.
// A hidden cursor maps to the terminal's cursor.
//
// # Mouse
//
// The terminal surface stands in for the simulation canvas. A cell is
// mapped to CSS pixels with a fixed cell size and events are placed at the
// cell centre. A right press is a context-menu request. Focus loss releases
// every button.
//
// # Key Bindings
//
//   - space: Pause or resume
//   - u: Hide or show the GUI
//   - tab, shift+tab: Select field
//   - s: Switch between settings and state
//   - enter, e: Edit the selected field
//   - +/-: Step the selected field
//   - p: Apply a preset by name
//   - r: Randomize
//   - R: Reset
//   - arrows, hjkl: Pan the camera
//   - d: Diagnostics (log tail)
//   - T: Cycle theme
//   - ?: Help
//   - q, ctrl+c: Quit
package ui
