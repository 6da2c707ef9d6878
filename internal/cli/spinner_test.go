package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerLiveMessage(t *testing.T) {
	var out syncBuffer
	var n atomic.Int64
	s := newSpinnerWithContext(context.Background(), &out, func() string {
		return "Rendering... " + strings.Repeat("x", int(n.Add(1)%3))
	})
	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	if n.Load() < 2 {
		t.Errorf("message evaluated %d times, want one per frame", n.Load())
	}
	if !strings.Contains(out.String(), "Rendering...") {
		t.Errorf("output = %q", out.String())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, &syncBuffer{}, func() string { return "Testing" })
	s.Start()
	cancel()
	time.Sleep(50 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsNotCancellation(t *testing.T) {
	s := newSpinner(&syncBuffer{}, "stopping")
	s.Start()
	s.Stop()
	if s.Cancelled() {
		t.Error("Stop should not report cancellation")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(&syncBuffer{}, "Testing idempotent stop...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerClearsOnlyAfterDrawing(t *testing.T) {
	var out syncBuffer
	s := newSpinner(&out, "never drawn")
	s.Start()
	s.Stop()
	if strings.Contains(out.String(), "never drawn") {
		return
	}
	if out.String() != "" {
		t.Errorf("spinner wrote %q without drawing a frame", out.String())
	}
}
