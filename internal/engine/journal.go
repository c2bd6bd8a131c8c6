package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// JournalEntry is one line of the command journal.
type JournalEntry struct {
	Time      time.Time       `json:"time"`
	Kind      string          `json:"kind"` // "invoke" or "event"
	Name      string          `json:"name"`
	Args      any             `json:"args,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	ElapsedMS int64           `json:"elapsed_ms,omitempty"`
}

// Journal is a Channel decorator that records every invocation and event to
// hourly-rotated, zstd-compressed JSONL files.
type Journal struct {
	next Channel
	w    *journalWriter
	log  *log.Logger
	now  func() time.Time
}

var _ Channel = (*Journal)(nil)

// NewJournal wraps next, writing files named journal-<hour>.jsonl.zst under dir.
func NewJournal(next Channel, dir string, logger *log.Logger) *Journal {
	if logger == nil {
		logger = log.Default()
	}
	return &Journal{
		next: next,
		w:    &journalWriter{baseDir: dir, prefix: "journal"},
		log:  logger,
		now:  time.Now,
	}
}

// Invoke forwards to the wrapped channel and records the outcome.
func (j *Journal) Invoke(ctx context.Context, command string, args any) (json.RawMessage, error) {
	start := j.now()
	result, err := j.next.Invoke(ctx, command, args)
	entry := JournalEntry{
		Time:      start.UTC(),
		Kind:      "invoke",
		Name:      command,
		Args:      args,
		Result:    result,
		ElapsedMS: j.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	j.record(entry)
	return result, err
}

// Subscribe forwards to the wrapped channel, recording each delivered event.
func (j *Journal) Subscribe(event string, h Handler) func() {
	return j.next.Subscribe(event, func(payload json.RawMessage) {
		j.record(JournalEntry{Time: j.now().UTC(), Kind: "event", Name: event, Result: payload})
		h(payload)
	})
}

// Close flushes and closes the current journal file.
func (j *Journal) Close() error {
	return j.w.Close()
}

func (j *Journal) record(entry JournalEntry) {
	if err := j.w.Write(entry.Time, entry); err != nil {
		j.log.Printf("journal: write %s %s: %v", entry.Kind, entry.Name, err)
	}
}

type journalWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func (w *journalWriter) Write(at time.Time, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := at.UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *journalWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *journalWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("init journal encoder: %w", err)
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curHour = hour
	return nil
}

func (w *journalWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

func (w *journalWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}
