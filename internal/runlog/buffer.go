// Package runlog buffers the append-only text log of a run in memory and
// flushes it to storage on an interval and on demand, so that appending a
// line never blocks on database I/O.
package runlog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Flusher persists the full log text. It receives the complete buffer,
// not a delta: the log column is replaced wholesale on every flush.
type Flusher func(ctx context.Context, logData string) error

const defaultInterval = 2 * time.Second

// Buffer is a run-scoped log. Safe for concurrent use, though a run
// appends from a single goroutine in practice.
type Buffer struct {
	mu    sync.Mutex
	lines []string
	dirty bool

	flush    Flusher
	interval time.Duration
	clock    func() time.Time
}

// New builds a Buffer flushing through fn. A non-positive interval falls
// back to the default.
func New(fn Flusher, interval time.Duration) *Buffer {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Buffer{
		flush:    fn,
		interval: interval,
		clock:    time.Now,
	}
}

// Appendf formats and appends one timestamped line.
func (b *Buffer) Appendf(format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", b.clock().Format("15:04:05"), fmt.Sprintf(format, args...))

	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.dirty = true
	b.mu.Unlock()
}

// String returns the current log text.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// Flush writes the buffer through the Flusher if anything changed since
// the last flush.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	if !b.dirty {
		b.mu.Unlock()
		return nil
	}
	text := strings.Join(b.lines, "\n")
	b.dirty = false
	b.mu.Unlock()

	if b.flush == nil {
		return nil
	}
	if err := b.flush(ctx, text); err != nil {
		// Leave dirty so the next flush retries with the full text.
		b.mu.Lock()
		b.dirty = true
		b.mu.Unlock()
		return err
	}
	return nil
}

// Run flushes on the configured interval until ctx is cancelled, then
// performs one final flush with a short independent deadline so the tail
// of the log survives cancellation.
func (b *Buffer) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = b.Flush(final)
			cancel()
			return
		case <-ticker.C:
			_ = b.Flush(ctx)
		}
	}
}
