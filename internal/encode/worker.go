package encode

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"flacmirror/internal/config"
	"flacmirror/internal/fileutil"
	"flacmirror/internal/logging"
	"flacmirror/internal/runstate"
	"flacmirror/internal/scan"
	"flacmirror/internal/sniff"
)

// Worker executes the per-job conversion state machine. Each stage is
// terminal on its first applicable condition, and every terminal path
// updates exactly one outcome counter exactly once.
type Worker struct {
	run    config.Run
	store  *runstate.Store
	enc    Encoder
	logger *slog.Logger
}

// NewWorker wires a worker against the shared state store.
func NewWorker(run config.Run, store *runstate.Store, enc Encoder, logger *slog.Logger) *Worker {
	return &Worker{
		run:    run,
		store:  store,
		enc:    enc,
		logger: logging.NewComponentLogger(logger, "worker"),
	}
}

// Process handles one job. seq is the dispatch sequence number, used only
// for human-readable progress lines.
func (w *Worker) Process(ctx context.Context, seq int, job scan.Job) {
	logger := w.logger.With(
		logging.String(logging.FieldJob, job.Source),
		logging.Int(logging.FieldSequence, seq),
	)
	logger.Debug("job picked up", logging.Int64("of", w.store.Snapshot().Total))

	if w.run.DryRun {
		w.processDry(job, logger)
		return
	}

	if err := fileutil.EnsureDir(filepath.Dir(job.Dest)); err != nil {
		w.fail(job, "could not create destination directory", logger, logging.Error(err))
		return
	}

	if !w.run.Overwrite {
		switch sniff.Classify(job.Dest) {
		case sniff.ValidOutput:
			w.store.Skipped.Increment()
			logger.Info("skipped, valid output already present", logging.String("dest", job.Dest))
			return
		case sniff.ValidSource, sniff.Invalid:
			// A corrupt or partial leftover is treated as absent and
			// overwritten below.
		}
	}

	tempPath := fileutil.TempOutputPath(job.Dest)
	diagnostic, err := w.enc.Encode(ctx, job.Source, tempPath, w.run.Quality)
	if err != nil {
		_ = fileutil.RemoveIfExists(tempPath)
		w.store.AppendErrorLog(ctx, job.Source, diagnostic)
		w.fail(job, "encoder failed", logger, logging.Error(err))
		return
	}

	if err := os.Rename(tempPath, job.Dest); err != nil {
		_ = fileutil.RemoveIfExists(tempPath)
		w.fail(job, "could not move encoded output into place", logger, logging.Error(err))
		return
	}

	w.store.Success.Increment()
	logger.Info("converted", logging.String("dest", job.Dest))
}

// processDry reports intended actions without touching the destination tree.
// The success counter doubles as the would-convert count.
func (w *Worker) processDry(job scan.Job, logger *slog.Logger) {
	if !w.run.Overwrite && sniff.Classify(job.Dest) == sniff.ValidOutput {
		w.store.Skipped.Increment()
		logger.Info("would skip, valid output already present", logging.String("dest", job.Dest))
		return
	}
	w.store.Success.Increment()
	logger.Info("would convert", logging.String("dest", job.Dest))
}

func (w *Worker) fail(job scan.Job, cause string, logger *slog.Logger, attrs ...logging.Attr) {
	w.store.Failed.Increment()
	w.store.RecordFailure(job.Source, cause)
	logger.Error(cause, logging.Args(attrs...)...)
}
