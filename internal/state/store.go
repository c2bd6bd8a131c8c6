package state

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot represents the engine as the UI last saw it.
type Snapshot struct {
	Simulation          string
	Initialized         bool
	Running             bool
	FPS                 float64
	FPSUpdated          time.Time
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive resync failures
}

// IsOffline returns true when resyncs have failed several times in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Begin resets the store for a newly started simulation.
func (s *Store) Begin(simulation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{Simulation: simulation, Running: true, LastUpdated: time.Now()}
}

// MarkInitialized records that the engine finished setting up.
func (s *Store) MarkInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Initialized = true
	s.snapshot.LastUpdated = time.Now()
}

// SetRunning records whether the simulation is advancing.
func (s *Store) SetRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Running = running
}

// RecordFPS stores the latest frame rate pushed by the engine.
func (s *Store) RecordFPS(fps float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.snapshot.FPS = fps
	s.snapshot.FPSUpdated = now
	s.snapshot.LastUpdated = now
}

// RecordSync notes the outcome of a resync. When err is non-nil the previous
// data is kept but the error is recorded for visibility.
func (s *Store) RecordSync(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
