package runstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"flacmirror/internal/logging"
	"flacmirror/internal/services"
)

// FailureRecord ties a failed job path to its human-readable cause.
type FailureRecord struct {
	Path  string
	Cause string
}

// Snapshot is a point-in-time read of the run counters. It is derived on
// demand, never stored.
type Snapshot struct {
	Success int64
	Skipped int64
	Failed  int64
	Total   int64
	Elapsed time.Duration
}

// Processed sums the terminal outcomes.
func (s Snapshot) Processed() int64 {
	return s.Success + s.Skipped + s.Failed
}

// Store is the only mutable state shared between workers: the outcome
// counters, the failure list, and the on-disk error log. It owns a
// run-scoped scratch directory that is removed exactly once on teardown.
type Store struct {
	runID   string
	dir     string
	total   int64
	started time.Time
	logger  *slog.Logger

	Success *Counter
	Skipped *Counter
	Failed  *Counter

	mu       sync.Mutex
	failures []FailureRecord

	errLogPath string
	errLogLock *FileLock

	cleanup sync.Once
}

// Open creates the scratch directory and initializes the counters for a run
// of total jobs.
func Open(total int, timing LockTiming, logger *slog.Logger) (*Store, error) {
	runID := uuid.NewString()
	dir, err := os.MkdirTemp("", "flacmirror-"+runID[:8]+"-")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "runstate", "open", "could not create scratch directory", err)
	}

	errLogPath := filepath.Join(dir, "conversion_errors.log")
	return &Store{
		runID:      runID,
		dir:        dir,
		total:      int64(total),
		started:    time.Now(),
		logger:     logging.NewComponentLogger(logger, "runstate"),
		Success:    NewCounter(),
		Skipped:    NewCounter(),
		Failed:     NewCounter(),
		errLogPath: errLogPath,
		errLogLock: NewFileLock(errLogPath+".lock", timing),
	}, nil
}

// RunID returns the identifier naming this run's scratch artifacts.
func (s *Store) RunID() string {
	return s.runID
}

// ScratchDir returns the run-scoped scratch directory.
func (s *Store) ScratchDir() string {
	return s.dir
}

// ErrorLogPath returns the error log location inside the scratch directory.
func (s *Store) ErrorLogPath() string {
	return s.errLogPath
}

// Snapshot reads the three counters and the elapsed time.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Success: s.Success.Value(),
		Skipped: s.Skipped.Value(),
		Failed:  s.Failed.Value(),
		Total:   s.total,
		Elapsed: time.Since(s.started),
	}
}

// RecordFailure appends one failure record under the store's guard.
func (s *Store) RecordFailure(path, cause string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, FailureRecord{Path: path, Cause: cause})
}

// Failures returns a copy of the failure list.
func (s *Store) Failures() []FailureRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FailureRecord, len(s.failures))
	copy(out, s.failures)
	return out
}

// AppendErrorLog writes one timestamped diagnostic block to the error log
// under the log's file lock. A lock timeout is a soft failure: the block is
// dropped with a warning and the run continues.
func (s *Store) AppendErrorLog(ctx context.Context, jobPath, diagnostic string) {
	if err := s.errLogLock.Acquire(ctx); err != nil {
		if errors.Is(err, services.ErrTimeout) {
			s.logger.Warn("error log lock timed out, diagnostic dropped",
				logging.String(logging.FieldJob, jobPath),
				logging.Error(err),
			)
			return
		}
		s.logger.Warn("error log lock failed", logging.String(logging.FieldJob, jobPath), logging.Error(err))
		return
	}
	defer func() {
		if err := s.errLogLock.Release(); err != nil {
			s.logger.Warn("error log lock release failed", logging.Error(err))
		}
	}()

	file, err := os.OpenFile(s.errLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.logger.Warn("could not open error log", logging.Error(err))
		return
	}
	defer file.Close()

	block := fmt.Sprintf("[%s] %s\n%s\n\n",
		time.Now().UTC().Format(time.RFC3339),
		jobPath,
		strings.TrimRight(diagnostic, "\n"),
	)
	if _, err := file.WriteString(block); err != nil {
		s.logger.Warn("could not append to error log", logging.Error(err))
	}
}

// HasErrorLog reports whether any diagnostic block was persisted.
func (s *Store) HasErrorLog() bool {
	info, err := os.Stat(s.errLogPath)
	return err == nil && info.Size() > 0
}

// Close removes the scratch directory. It is safe to call on every exit
// path; the removal runs exactly once.
func (s *Store) Close() {
	s.cleanup.Do(func() {
		if err := os.RemoveAll(s.dir); err != nil {
			s.logger.Warn("scratch directory cleanup failed", logging.String("dir", s.dir), logging.Error(err))
		}
	})
}
