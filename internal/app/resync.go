package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/five82/simdeck/internal/screen"
)

const maxBackoff = 30 * time.Second

// resyncer refreshes the runtime state from the engine.
type resyncer interface {
	ResyncState(ctx context.Context) error
}

// StartResync launches a background goroutine that pulls the runtime state at
// interval, backing off while the engine keeps failing. It returns
// immediately. A non-positive interval disables the loop.
func StartResync(ctx context.Context, r resyncer, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = log.Default()
	}
	go runResync(ctx, r, interval, logger, time.After)
}

func runResync(ctx context.Context, r resyncer, interval time.Duration, logger *log.Logger, after func(time.Duration) <-chan time.Time) {
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-after(calculateBackoff(failures, interval)):
		}

		err := r.ResyncState(ctx)
		switch {
		case err == nil:
			if failures > 0 {
				logger.Printf("state resync recovered after %d failures", failures)
			}
			failures = 0
		case ctx.Err() != nil:
			return
		case errors.Is(err, screen.ErrClosed):
			return
		default:
			failures++
			logger.Printf("warning: state resync failed: %v", err)
		}
	}
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
