// Package state holds the engine liveness data shown by the viewer.
//
// # Overview
//
// The Store is the meeting point between engine events, the resync loop and
// the UI. Event handlers and the resync loop write; the UI reads a Snapshot
// on every render.
//
//	Writers:                         Reader (UI):
//	┌─────────────────────────┐     ┌──────────────────┐
//	│ simulation-initialized  │     │                  │
//	│   → MarkInitialized()   │     │                  │
//	│ fps-update              │────→│ store.Snapshot() │
//	│   → RecordFPS()         │     │      ↓           │
//	│ resync loop             │     │  render status   │
//	│   → RecordSync(err)     │     │                  │
//	└─────────────────────────┘     └──────────────────┘
//
// # Concurrency Model
//
// A sync.RWMutex guards the snapshot. Writers hold the write lock only while
// assigning fields; Snapshot takes the read lock and returns a copy.
//
// # Failure Accounting
//
// RecordSync(nil) clears LastError and the failure counter. A non-nil error
// keeps FPS and initialization data, stores the error and increments
// ConsecutiveFailures. IsOffline reports true from the second failure on,
// which the UI shows as an offline badge. Failures are never modal.
//
// # Usage Example
//
//	store := &state.Store{}
//	store.Begin("gray-scott")
//	unsubscribe := ch.Subscribe(engine.EventFPSUpdate, func(raw json.RawMessage) {
//		var fps float64
//		if json.Unmarshal(raw, &fps) == nil {
//			store.RecordFPS(fps)
//		}
//	})
//	defer unsubscribe()
package state
