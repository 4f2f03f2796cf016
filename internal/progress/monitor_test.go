package progress

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"flacmirror/internal/logging"
	"flacmirror/internal/runstate"
)

// syncBuffer guards concurrent writes from the monitor goroutine.
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

func openStore(t *testing.T, total int) *runstate.Store {
	t.Helper()
	store, err := runstate.Open(total, runstate.DefaultLockTiming(), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestMonitorTerminatesWhenRunCompletes(t *testing.T) {
	store := openStore(t, 3)
	out := &syncBuffer{}

	monitor := NewMonitor(Options{
		Store:    store,
		Interval: 5 * time.Millisecond,
		Warmup:   0,
		Out:      out,
		Logger:   logging.NewNop(),
	})
	go monitor.Run(context.Background())

	store.Success.Increment()
	store.Skipped.Increment()
	store.Failed.Increment()

	done := make(chan struct{})
	go func() {
		monitor.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not terminate after all jobs finished")
	}

	rendered := out.String()
	if !strings.Contains(rendered, "ok 1") || !strings.Contains(rendered, "fail 1") {
		t.Fatalf("status line missing counts: %q", rendered)
	}
}

func TestMonitorStopsOnCancel(t *testing.T) {
	store := openStore(t, 100)
	ctx, cancel := context.WithCancel(context.Background())

	monitor := NewMonitor(Options{
		Store:    store,
		Interval: 5 * time.Millisecond,
		Out:      &syncBuffer{},
		Logger:   logging.NewNop(),
	})
	go monitor.Run(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		monitor.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on cancellation")
	}
}

func TestMonitorPlainOutputOffTerminal(t *testing.T) {
	store := openStore(t, 2)
	out := &syncBuffer{}

	monitor := NewMonitor(Options{
		Store:    store,
		Interval: 5 * time.Millisecond,
		Out:      out,
		Logger:   logging.NewNop(),
	})
	go monitor.Run(context.Background())

	store.Success.Increment()
	store.Skipped.Increment()
	monitor.Wait()

	rendered := out.String()
	// A non-terminal writer must get plain appendable lines, never cursor
	// control sequences or carriage-return redraws.
	if strings.ContainsAny(rendered, "\x1b\r") {
		t.Fatalf("control sequences written to non-terminal output: %q", rendered)
	}
	if !strings.Contains(rendered, "[2/2]") {
		t.Fatalf("final status line missing: %q", rendered)
	}
}

func TestDescribeLineShowsWarmup(t *testing.T) {
	snap := runstate.Snapshot{Success: 2, Total: 10}
	line := describeLine(snap, 0, false)
	if !strings.Contains(line, "eta calculating") {
		t.Fatalf("line = %q", line)
	}
}
