package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/simdeck/internal/autohide"
	"github.com/five82/simdeck/internal/engine"
	"github.com/five82/simdeck/internal/screen"
	"github.com/five82/simdeck/internal/syncmgr"
)

type recordMsg struct {
	kind syncmgr.Kind
	rec  engine.Record
}

type visibilityMsg autohide.State

type initializedMsg struct{}

type fpsMsg float64

// Relay turns screen hooks into Bubble Tea messages. Hooks may fire from
// inside Update (auto-hide callbacks run synchronously on input), so posting
// never blocks: messages are queued and a single goroutine delivers them in
// order once a program is attached.
type Relay struct {
	mu    sync.Mutex
	queue []tea.Msg
	wake  chan struct{}
}

// NewRelay returns an unattached relay.
func NewRelay() *Relay {
	return &Relay{wake: make(chan struct{}, 1)}
}

// Hooks returns screen hooks that post to the relay.
func (r *Relay) Hooks() screen.Hooks {
	return screen.Hooks{
		RecordChanged: func(kind syncmgr.Kind, rec engine.Record) {
			r.post(recordMsg{kind: kind, rec: rec.Clone()})
		},
		Visibility:  func(s autohide.State) { r.post(visibilityMsg(s)) },
		Initialized: func() { r.post(initializedMsg{}) },
		FPS:         func(fps float64) { r.post(fpsMsg(fps)) },
	}
}

// Attach delivers queued and future messages to send until ctx ends.
func (r *Relay) Attach(ctx context.Context, send func(tea.Msg)) {
	go r.pump(ctx, send)
}

func (r *Relay) post(msg tea.Msg) {
	r.mu.Lock()
	r.queue = append(r.queue, msg)
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Relay) pump(ctx context.Context, send func(tea.Msg)) {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-r.wake:
			}
			continue
		}
		msg := r.queue[0]
		r.queue[0] = nil
		r.queue = r.queue[1:]
		r.mu.Unlock()
		send(msg)
	}
}
