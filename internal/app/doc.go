// Package app is the composition root of simdeck.
//
// # Startup
//
//  1. Load config.toml and the simulation profiles
//  2. Route the standard logger to <log_dir>/simdeck.log
//  3. Load viewer preferences
//  4. Dial the engine, optionally journaling every command
//  5. Build the screen with the relay's hooks
//  6. Start the state resync loop
//  7. Run the terminal UI until the user quits
//
// Shutdown runs in reverse: the screen is closed first so it can release
// held buttons and destroy the simulation while the connection still works.
//
// # Resync
//
// The engine only pushes FPS and lifecycle events, so runtime state changed
// elsewhere is pulled on a fixed interval. Consecutive failures double the
// wait up to 30 seconds; the first success resets it.
//
// # Errors
//
// Config, profile, log and dial failures are fatal and returned from Run. A
// dropped connection after startup ends the UI and is returned too. Failed
// resyncs are logged and retried.
package app
