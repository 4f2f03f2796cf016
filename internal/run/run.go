// Package run wires the whole conversion pipeline together: preflight,
// scan, capacity check, worker pool, progress, and the final report.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flacmirror/internal/capacity"
	"flacmirror/internal/config"
	"flacmirror/internal/deps"
	"flacmirror/internal/dispatch"
	"flacmirror/internal/encode"
	"flacmirror/internal/fileutil"
	"flacmirror/internal/logging"
	"flacmirror/internal/progress"
	"flacmirror/internal/report"
	"flacmirror/internal/runstate"
	"flacmirror/internal/scan"
	"flacmirror/internal/services"
)

// RunLockName is the lock file guarding a destination tree against
// concurrent invocations.
const RunLockName = ".flacmirror.lock"

// Options assembles everything Execute needs. Confirm answers interactive
// prompts; nil means every prompt is accepted.
type Options struct {
	Settings *config.Settings
	Run      config.Run
	Encoder  encode.Encoder
	Logger   *slog.Logger
	Out      io.Writer
	Confirm  func(prompt string) bool
}

// Result summarizes a finished run.
type Result struct {
	Snapshot     runstate.Snapshot
	Failures     []runstate.FailureRecord
	ErrorLogPath string
	NoJobs       bool
	Declined     bool
}

// Execute performs one conversion run end to end. A non-nil error means the
// run could not start or complete; per-job failures are reported through
// Result instead.
func Execute(ctx context.Context, opts Options) (Result, error) {
	logger := logging.NewComponentLogger(opts.Logger, "run")
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	confirm := opts.Confirm
	if confirm == nil {
		confirm = func(string) bool { return true }
	}

	sourceDir, destDir, err := resolveDirs(opts.Run.SourceDir, opts.Run.DestDir)
	if err != nil {
		return Result{}, err
	}
	runCfg := opts.Run
	runCfg.SourceDir, runCfg.DestDir = sourceDir, destDir

	if nestedDest(sourceDir, destDir) {
		prompt := fmt.Sprintf("Destination %s lies inside the source tree; its files are excluded from conversion. Continue?", destDir)
		if !runCfg.DryRun && !confirm(prompt) {
			return Result{Declined: true}, nil
		}
	}

	if !runCfg.DryRun {
		if err := deps.Verify(opts.Settings.Encoder.Binary); err != nil {
			return Result{}, err
		}
	}
	if err := fileutil.EnsureDir(destDir); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "run", "prepare", "destination directory is not usable", err)
	}

	scanned, err := scan.Walk(sourceDir, destDir)
	if err != nil {
		return Result{}, err
	}
	jobs := excludeDestTree(scanned.Jobs, sourceDir, destDir)
	logger.Info("scan complete",
		logging.Int("discovered", scanned.Total()),
		logging.Int("jobs", len(jobs)),
		logging.Int64("source_bytes", scanned.TotalSourceBytes),
	)
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No source files found; nothing to do.")
		return Result{NoJobs: true}, nil
	}

	if !runCfg.DryRun {
		estimate, err := capacity.Plan(destDir, scanned.TotalSourceBytes,
			opts.Settings.Capacity.OutputRatio, opts.Settings.Capacity.SafetyMargin)
		if err != nil {
			return Result{}, err
		}
		logger.Debug("capacity check passed",
			logging.Int64("required_bytes", estimate.RequiredBytes),
			logging.Int64("free_bytes", estimate.FreeBytes),
		)

		prompt := fmt.Sprintf("Convert %d files from %s into %s?", len(jobs), sourceDir, destDir)
		if !confirm(prompt) {
			return Result{Declined: true}, nil
		}
	}

	timing := lockTiming(opts.Settings.Locking)
	store, err := runstate.Open(len(jobs), timing, opts.Logger)
	if err != nil {
		return Result{}, err
	}
	defer store.Close()

	runLock := runstate.NewFileLock(filepath.Join(destDir, RunLockName), timing)
	if err := runLock.Acquire(ctx); err != nil {
		if errors.Is(err, services.ErrTimeout) {
			return Result{}, services.Wrap(services.ErrConfiguration, "run", "lock destination",
				"another run appears to be converting into "+destDir, err)
		}
		return Result{}, err
	}
	defer func() {
		if err := runLock.Release(); err != nil {
			logger.Warn("run lock release failed", logging.Error(err))
		}
		_ = fileutil.RemoveIfExists(runLock.Path())
	}()

	worker := encode.NewWorker(runCfg, store, opts.Encoder, opts.Logger)

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	var monitor *progress.Monitor
	if !runCfg.DryRun {
		monitor = progress.NewMonitor(progress.Options{
			Store:    store,
			Interval: time.Duration(opts.Settings.Progress.IntervalSeconds) * time.Second,
			Warmup:   time.Duration(opts.Settings.Progress.WarmupSeconds) * time.Second,
			Out:      out,
			Logger:   opts.Logger,
		})
		go monitor.Run(monitorCtx)
	}

	workers := opts.Settings.EffectiveWorkers(runCfg.Workers)
	dispatch.Run(ctx, jobs, workers, worker.Process)

	stopMonitor()
	if monitor != nil {
		monitor.Wait()
	}

	result := Result{
		Snapshot: store.Snapshot(),
		Failures: store.Failures(),
	}

	published, err := report.FinalizeErrorLog(store, destDir)
	if err != nil {
		logger.Warn("error log not published", logging.Error(err))
	}
	result.ErrorLogPath = published

	report.Write(out, report.Summary{
		Snapshot:    result.Snapshot,
		Failures:    result.Failures,
		SourceBytes: scanned.TotalSourceBytes,
		DryRun:      runCfg.DryRun,
	}, published)

	if err := ctx.Err(); err != nil {
		return result, services.Wrap(services.ErrTransient, "run", "execute", "run interrupted", err)
	}
	return result, nil
}

// resolveDirs normalizes both trees to absolute paths and rejects layouts no
// run could operate on.
func resolveDirs(sourceDir, destDir string) (string, string, error) {
	source, err := config.ExpandPath(sourceDir)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "run", "resolve source", "source path is not resolvable", err)
	}
	dest, err := config.ExpandPath(destDir)
	if err != nil {
		return "", "", services.Wrap(services.ErrValidation, "run", "resolve destination", "destination path is not resolvable", err)
	}

	info, err := os.Stat(source)
	if err != nil {
		return "", "", services.Wrap(services.ErrNotFound, "run", "resolve source", "source directory does not exist: "+source, err)
	}
	if !info.IsDir() {
		return "", "", services.Wrap(services.ErrValidation, "run", "resolve source", "source is not a directory: "+source, nil)
	}

	if source == dest {
		return "", "", services.Wrap(services.ErrConfiguration, "run", "resolve destination", "source and destination are the same directory", nil)
	}
	return source, dest, nil
}

// nestedDest reports whether dest lives under source.
func nestedDest(source, dest string) bool {
	rel, err := filepath.Rel(source, dest)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}

// excludeDestTree drops jobs whose source sits inside the destination tree,
// which only arises when the destination nests under the source.
func excludeDestTree(jobs []scan.Job, source, dest string) []scan.Job {
	if !nestedDest(source, dest) {
		return jobs
	}
	kept := jobs[:0]
	for _, job := range jobs {
		rel, err := filepath.Rel(dest, job.Source)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		kept = append(kept, job)
	}
	return kept
}

func lockTiming(l config.Locking) runstate.LockTiming {
	return runstate.LockTiming{
		Timeout: time.Duration(l.TimeoutSeconds) * time.Second,
		Poll:    time.Duration(l.PollMillis) * time.Millisecond,
		Stale:   time.Duration(l.StaleMinutes) * time.Minute,
	}
}
