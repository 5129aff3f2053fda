package runlog_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KorotaevvEgor/Scripts-Hub/internal/runlog"
)

type recordingFlusher struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *recordingFlusher) flush(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *recordingFlusher) last() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return "", 0
	}
	return f.texts[len(f.texts)-1], len(f.texts)
}

func (f *recordingFlusher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func TestAppendfTimestampsLines(t *testing.T) {
	b := runlog.New(nil, 0)
	b.Appendf("Запуск парсера вакансий hh.ru")
	b.Appendf("Обработано %d страниц", 3)

	lines := strings.Split(b.String(), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[") || !strings.Contains(line, "] ") {
			t.Errorf("line %q missing [HH:MM:SS] prefix", line)
		}
	}
	if !strings.Contains(lines[1], "Обработано 3 страниц") {
		t.Errorf("line = %q, want formatted message", lines[1])
	}
}

func TestFlushSkipsWhenClean(t *testing.T) {
	rec := &recordingFlusher{}
	b := runlog.New(rec.flush, 0)

	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush on empty buffer: %v", err)
	}
	if _, n := rec.last(); n != 0 {
		t.Fatalf("flusher called %d times on clean buffer, want 0", n)
	}

	b.Appendf("строка")
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if _, n := rec.last(); n != 1 {
		t.Errorf("flusher called %d times, want 1 (nothing new since last flush)", n)
	}
}

func TestFlushRetriesFullTextAfterError(t *testing.T) {
	rec := &recordingFlusher{}
	b := runlog.New(rec.flush, 0)

	b.Appendf("первая")
	rec.setErr(errors.New("db gone"))
	if err := b.Flush(context.Background()); err == nil {
		t.Fatal("Flush swallowed the flusher error")
	}

	b.Appendf("вторая")
	rec.setErr(nil)
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("retry Flush: %v", err)
	}

	text, n := rec.last()
	if n != 1 {
		t.Fatalf("successful flushes = %d, want 1", n)
	}
	if !strings.Contains(text, "первая") || !strings.Contains(text, "вторая") {
		t.Errorf("retried flush lost lines:\n%s", text)
	}
}

func TestRunFlushesTailOnCancel(t *testing.T) {
	rec := &recordingFlusher{}
	b := runlog.New(rec.flush, time.Hour) // interval never fires in-test

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()

	b.Appendf("хвост лога")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	text, n := rec.last()
	if n != 1 {
		t.Fatalf("flushes = %d, want exactly the final one", n)
	}
	if !strings.Contains(text, "хвост лога") {
		t.Errorf("final flush missing tail:\n%s", text)
	}
}

func TestRunPeriodicFlush(t *testing.T) {
	rec := &recordingFlusher{}
	b := runlog.New(rec.flush, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()

	b.Appendf("строка")
	deadline := time.After(2 * time.Second)
	for {
		if _, n := rec.last(); n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no periodic flush within deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
