// Package syncmgr keeps the UI's copy of Settings and RuntimeState in step
// with the engine's authoritative copy.
//
// # Optimistic Updates
//
// UpdateSettingOptimistic and UpdateStateOptimistic return the edited record
// synchronously so the UI can re-render at once, then persist the value in
// the background. The returned Op reports the outcome. When a field has
// derived effects on other fields the caller asks for a resync, and the Op
// resolves to a full authoritative fetch instead of the optimistic guess.
//
// # Ordering
//
// Requests are neither queued nor cancelled. Every write bumps a per-record
// sequence number and records it against its key. A full fetch remembers the
// sequence at which it was issued and, when it lands, leaves alone every key
// written after that point. A stale response therefore never overwrites a
// newer local value, and over-fetching converges on the engine's state.
//
// # Failures
//
// A rejected write reverts its key to the last authoritative value, with one
// warning log, unless a newer write to the same key is already in flight.
// Nothing is retried. Invalid input is rejected by the Validator before any
// command is issued.
package syncmgr
