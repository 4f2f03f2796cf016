package runstate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flacmirror/internal/services"
)

func TestFileLockAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")
	lock := NewFileLock(path, LockTiming{Timeout: time.Second, Poll: 10 * time.Millisecond, Stale: time.Hour})

	if err := lock.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestFileLockContentionTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")
	timing := LockTiming{Timeout: 200 * time.Millisecond, Poll: 20 * time.Millisecond, Stale: time.Hour}

	holder := NewFileLock(path, timing)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("holder Acquire: %v", err)
	}
	defer holder.Release()

	contender := NewFileLock(path, timing)
	err := contender.Acquire(context.Background())
	if err == nil {
		contender.Release()
		t.Fatal("expected timeout while lock is held")
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestFileLockReclaimsStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")

	holder := NewFileLock(path, LockTiming{Timeout: time.Second, Poll: 10 * time.Millisecond, Stale: time.Hour})
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("holder Acquire: %v", err)
	}
	// Simulate a holder that crashed long ago.
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	contender := NewFileLock(path, LockTiming{
		Timeout: 150 * time.Millisecond,
		Poll:    20 * time.Millisecond,
		Stale:   time.Minute,
	})
	if err := contender.Acquire(context.Background()); err != nil {
		t.Fatalf("stale lock not reclaimed: %v", err)
	}
	contender.Release()
}

func TestFileLockFreshLockNotReclaimed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")
	timing := LockTiming{Timeout: 150 * time.Millisecond, Poll: 20 * time.Millisecond, Stale: time.Hour}

	holder := NewFileLock(path, timing)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("holder Acquire: %v", err)
	}
	defer holder.Release()

	contender := NewFileLock(path, timing)
	if err := contender.Acquire(context.Background()); err == nil {
		contender.Release()
		t.Fatal("fresh lock must not be reclaimed")
	}
}

func TestFileLockExcludesGoroutinesSharingOneInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")
	timing := LockTiming{Timeout: 200 * time.Millisecond, Poll: 20 * time.Millisecond, Stale: time.Hour}

	lock := NewFileLock(path, timing)
	if err := lock.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// flock re-grants the file to the owning process, so exclusion between
	// goroutines rests entirely on the instance's own ownership tracking.
	err := lock.Acquire(context.Background())
	if err == nil {
		t.Fatal("second acquisition succeeded while the lock is held")
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := lock.Acquire(context.Background()); err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	lock.Release()
}

func TestFileLockReleaseUnheldIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")
	lock := NewFileLock(path, DefaultLockTiming())

	if err := lock.Release(); err != nil {
		t.Fatalf("Release on unheld lock: %v", err)
	}
}

func TestFileLockAcquireHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")
	timing := LockTiming{Timeout: 10 * time.Second, Poll: 20 * time.Millisecond, Stale: time.Hour}

	holder := NewFileLock(path, timing)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("holder Acquire: %v", err)
	}
	defer holder.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	contender := NewFileLock(path, timing)
	if err := contender.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}
