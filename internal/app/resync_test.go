package app

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/simdeck/internal/screen"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 80; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

// scriptedResyncer returns errs in order, then nil.
type scriptedResyncer struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (r *scriptedResyncer) ResyncState(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

// fakeAfter records requested delays and fires immediately.
type fakeAfter struct {
	mu     sync.Mutex
	delays []time.Duration
	limit  int
	cancel context.CancelFunc
}

func (f *fakeAfter) after(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays = append(f.delays, d)
	if len(f.delays) > f.limit {
		f.cancel()
		return make(chan time.Time)
	}
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestRunResync_BacksOffAndRecovers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("engine busy")
	r := &scriptedResyncer{errs: []error{boom, boom}}
	fa := &fakeAfter{limit: 4, cancel: cancel}
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	runResync(ctx, r, time.Second, logger, fa.after)

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, time.Second, time.Second}
	if len(fa.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", fa.delays, want)
	}
	for i := range want {
		if fa.delays[i] != want[i] {
			t.Fatalf("delays = %v, want %v", fa.delays, want)
		}
	}
	if r.calls != 4 {
		t.Fatalf("calls = %d, want 4", r.calls)
	}
	out := buf.String()
	if strings.Count(out, "state resync failed") != 2 {
		t.Fatalf("log = %q, want two failures", out)
	}
	if !strings.Contains(out, "recovered after 2 failures") {
		t.Fatalf("log = %q, want recovery line", out)
	}
}

func TestRunResync_StopsWhenScreenClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &scriptedResyncer{errs: []error{screen.ErrClosed}}
	fa := &fakeAfter{limit: 10, cancel: cancel}

	done := make(chan struct{})
	go func() {
		runResync(ctx, r, time.Second, log.New(&bytes.Buffer{}, "", 0), fa.after)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runResync did not return after ErrClosed")
	}
	if r.calls != 1 {
		t.Fatalf("calls = %d, want 1", r.calls)
	}
}

func TestStartResync_DisabledInterval(t *testing.T) {
	r := &scriptedResyncer{}
	StartResync(context.Background(), r, 0, nil)
	time.Sleep(20 * time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls != 0 {
		t.Fatalf("calls = %d, want 0", r.calls)
	}
}
