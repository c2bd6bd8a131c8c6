// Package screen is the composition root for one simulation mode.
//
// A Screen owns exactly one syncmgr.Manager, one autohide.Controller, one
// pointer.Router and the engine.Dispatcher the router sends through. The UI
// forwards raw input and form edits to it and re-renders from the records and
// visibility state it reports through Hooks.
//
// Every pointer input taps the auto-hide controller before it is routed, so
// controls reappear on any activity. Close cancels the timers, releases held
// buttons, drops event subscriptions and destroys the simulation; it is safe
// to call more than once.
package screen
