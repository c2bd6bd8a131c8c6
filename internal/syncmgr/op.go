package syncmgr

import (
	"context"

	"github.com/five82/simdeck/internal/engine"
)

// Op is the background half of an optimistic update.
type Op struct {
	done chan struct{}
	rec  engine.Record
	err  error
}

func newOp() *Op {
	return &Op{done: make(chan struct{})}
}

func (o *Op) finish(rec engine.Record, err error) {
	o.rec = rec
	o.err = err
	close(o.done)
}

// Done is closed when the engine has answered.
func (o *Op) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation completes or ctx ends. The record is the
// local copy after the outcome was applied: authoritative after a resync,
// reverted after a failed write, optimistic otherwise.
func (o *Op) Wait(ctx context.Context) (engine.Record, error) {
	select {
	case <-o.done:
		return o.rec, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
