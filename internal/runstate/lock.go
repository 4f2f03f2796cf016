package runstate

import (
	"context"
	"os"
	"time"

	"github.com/gofrs/flock"

	"flacmirror/internal/services"
)

// LockTiming bundles the acquisition parameters for a FileLock.
type LockTiming struct {
	// Timeout bounds the total wait for an acquisition.
	Timeout time.Duration
	// Poll is the retry interval while the lock is contended.
	Poll time.Duration
	// Stale is the age beyond which a held lock is presumed abandoned by
	// a crashed holder and may be forcibly reclaimed.
	Stale time.Duration
}

// DefaultLockTiming matches the documented defaults: 5s timeout, 100ms poll,
// 10min staleness.
func DefaultLockTiming() LockTiming {
	return LockTiming{
		Timeout: 5 * time.Second,
		Poll:    100 * time.Millisecond,
		Stale:   10 * time.Minute,
	}
}

// FileLock is a binary exclusive-acquisition primitive identified by a
// filesystem path. It is visible across processes, so it also guards
// against a second flacmirror invocation mutating the same state. A single
// instance shared by several goroutines excludes them from each other too:
// flock grants re-entry to the process that already holds the file, so
// in-process ownership is tracked separately.
type FileLock struct {
	path   string
	timing LockTiming
	sem    chan struct{}
	fl     *flock.Flock
}

// NewFileLock constructs a lock over path. Zero timing fields fall back to
// the defaults.
func NewFileLock(path string, timing LockTiming) *FileLock {
	defaults := DefaultLockTiming()
	if timing.Timeout <= 0 {
		timing.Timeout = defaults.Timeout
	}
	if timing.Poll <= 0 {
		timing.Poll = defaults.Poll
	}
	if timing.Stale <= 0 {
		timing.Stale = defaults.Stale
	}
	return &FileLock{
		path:   path,
		timing: timing,
		sem:    make(chan struct{}, 1),
		fl:     flock.New(path),
	}
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire polls for exclusive ownership until the timeout elapses. When the
// timeout is exceeded and the lock file is older than the staleness
// threshold, the lock is forcibly reclaimed once and acquisition retried.
func (l *FileLock) Acquire(ctx context.Context) error {
	deadline := time.Now().Add(l.timing.Timeout)
	reclaimed := false

	for {
		if l.trySlot() {
			ok, err := l.fl.TryLock()
			if err == nil && ok {
				// Refresh the lock file age so staleness tracks the
				// current holder, not the file's creation.
				now := time.Now()
				_ = os.Chtimes(l.path, now, now)
				return nil
			}
			if err != nil {
				l.releaseSlot()
				return services.Wrap(services.ErrTransient, "lock", "acquire", "lock attempt failed for "+l.path, err)
			}

			// Another process holds the file. Reclaim only while holding
			// the slot, so the handle is never reset under a live holder.
			if time.Now().After(deadline) && !reclaimed && l.isStale() {
				reclaimed = true
				err := l.reclaim()
				l.releaseSlot()
				if err != nil {
					return err
				}
				deadline = time.Now().Add(l.timing.Poll)
				continue
			}
			l.releaseSlot()
		}

		if time.Now().After(deadline) {
			return services.Wrap(services.ErrTimeout, "lock", "acquire", "could not acquire "+l.path, nil)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.timing.Poll):
		}
	}
}

// Release drops ownership. Releasing an unheld lock is a no-op.
func (l *FileLock) Release() error {
	select {
	case <-l.sem:
		return l.fl.Unlock()
	default:
		return nil
	}
}

// trySlot claims in-process ownership without blocking.
func (l *FileLock) trySlot() bool {
	select {
	case l.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (l *FileLock) releaseSlot() {
	select {
	case <-l.sem:
	default:
	}
}

func (l *FileLock) isStale() bool {
	info, err := os.Stat(l.path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) > l.timing.Stale
}

// reclaim removes the abandoned lock file and resets the handle so the next
// attempt opens a fresh file descriptor.
func (l *FileLock) reclaim() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrTransient, "lock", "reclaim", "could not remove stale lock "+l.path, err)
	}
	l.fl = flock.New(l.path)
	return nil
}
