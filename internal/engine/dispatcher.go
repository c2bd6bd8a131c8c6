package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	dispatchTimeout = 2 * time.Second
	drainTimeout    = 3 * time.Second
)

type call struct {
	command string
	args    any
	barrier chan struct{}
}

// Dispatcher sends fire-and-forget commands to a Channel one at a time, in the
// order they were submitted. Send never blocks and never reports failures to
// the caller; rejected commands are logged and dropped.
type Dispatcher struct {
	ch  Channel
	log *log.Logger

	// ctx bounds every delivery. It is cancelled when a shutdown drain
	// runs out of time so the remaining calls fail fast.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  []call
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewDispatcher starts a dispatcher over ch.
func NewDispatcher(ch Channel, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		ch:     ch,
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Send queues command for delivery. Calls after Close are ignored.
func (d *Dispatcher) Send(command string, args any) {
	d.enqueue(call{command: command, args: args})
}

// Flush waits until every command queued before it has been handed to the
// channel and answered, or ctx ends.
func (d *Dispatcher) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !d.enqueue(call{barrier: barrier}) {
		return nil
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is Shutdown with a drain limit of a few seconds.
func (d *Dispatcher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	d.Shutdown(ctx)
}

// Shutdown stops accepting commands and delivers what is already queued,
// minus pointer moves and pans that no longer matter. If ctx ends first the
// in-flight call is abandoned and the rest fail without waiting on the
// engine. Shutdown returns once the worker has exited.
func (d *Dispatcher) Shutdown(ctx context.Context) {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		d.queue = dropTransient(d.queue)
	}
	d.mu.Unlock()
	d.signal()

	select {
	case <-d.done:
		return
	case <-ctx.Done():
	}
	d.mu.Lock()
	pending := len(d.queue)
	d.mu.Unlock()
	d.log.Printf("engine: shutdown drain timed out, abandoning %d queued commands", pending)
	d.cancel()
	<-d.done
}

// dropTransient removes queued moves and pans. Only the latest of either
// matters to the engine and the session is ending.
func dropTransient(queue []call) []call {
	kept := queue[:0]
	for _, c := range queue {
		if c.command == CmdInteractionContinue || c.command == CmdPan {
			continue
		}
		kept = append(kept, c)
	}
	clear(queue[len(kept):])
	return kept
}

func (d *Dispatcher) enqueue(c call) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, c)
	d.mu.Unlock()
	d.signal()
	return true
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	defer d.cancel()
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			closed := d.closed
			d.mu.Unlock()
			if closed {
				return
			}
			<-d.wake
			continue
		}
		next := d.queue[0]
		d.queue[0] = call{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if next.barrier != nil {
			close(next.barrier)
			continue
		}
		d.deliver(next)
	}
}

func (d *Dispatcher) deliver(c call) {
	ctx, cancel := context.WithTimeout(d.ctx, dispatchTimeout)
	defer cancel()
	if _, err := d.ch.Invoke(ctx, c.command, c.args); err != nil {
		d.log.Printf("engine: %s failed: %v", c.command, err)
	}
}
