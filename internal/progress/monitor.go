// Package progress renders the live run status line and the remaining-time
// estimate derived from throughput so far.
package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"flacmirror/internal/logging"
	"flacmirror/internal/runstate"
)

// Options configures a Monitor.
type Options struct {
	Store    *runstate.Store
	Interval time.Duration
	Warmup   time.Duration
	Out      io.Writer
	Logger   *slog.Logger
}

// Monitor samples the shared counters on a fixed cadence and redraws one
// status line. It is a pure reader of run state: the counters advance only
// through the workers.
type Monitor struct {
	store    *runstate.Store
	interval time.Duration
	warmup   time.Duration
	out      io.Writer
	logger   *slog.Logger
	sampler  *logging.ProgressSampler

	done chan struct{}
}

// NewMonitor builds a monitor; it does not start sampling until Run.
func NewMonitor(opts Options) *Monitor {
	interval := opts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &Monitor{
		store:    opts.Store,
		interval: interval,
		warmup:   opts.Warmup,
		out:      out,
		logger:   logging.NewComponentLogger(opts.Logger, "progress"),
		sampler:  logging.NewProgressSampler(5),
		done:     make(chan struct{}),
	}
}

// Run redraws the status line until every job reaches a terminal outcome or
// ctx is cancelled. It is meant to run on its own goroutine; Wait blocks
// until the final line has been written. The interactive bar only renders on
// a terminal; anything else gets plain periodic status lines, free of
// control sequences.
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.done)

	var draw func() bool
	if isTerminal(m.out) {
		bar := progressbar.NewOptions64(m.store.Snapshot().Total,
			progressbar.OptionSetWriter(m.out),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetTheme(progressbar.Theme{Saucer: "=", SaucerHead: ">", SaucerPadding: " ", BarStart: "[", BarEnd: "]"}),
			progressbar.OptionOnCompletion(func() { io.WriteString(m.out, "\n") }),
		)
		draw = func() bool { return m.drawBar(bar) }
	} else {
		draw = m.drawPlain
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			draw()
			return
		case <-ticker.C:
			if draw() {
				return
			}
		}
	}
}

// Wait blocks until Run has returned.
func (m *Monitor) Wait() {
	<-m.done
}

// drawBar refreshes the bar from a counter snapshot and reports whether the
// run is complete.
func (m *Monitor) drawBar(bar *progressbar.ProgressBar) bool {
	snap := m.store.Snapshot()
	processed := snap.Processed()

	eta, ok := ETA(snap.Elapsed, processed, snap.Total, m.warmup)
	bar.Describe(describeLine(snap, eta, ok))
	_ = bar.Set64(processed)

	m.logSample(snap, processed, eta, ok)
	return processed >= snap.Total
}

// drawPlain appends one full status line per tick.
func (m *Monitor) drawPlain() bool {
	snap := m.store.Snapshot()
	processed := snap.Processed()

	eta, ok := ETA(snap.Elapsed, processed, snap.Total, m.warmup)
	fmt.Fprintf(m.out, "%s [%d/%d]\n", describeLine(snap, eta, ok), processed, snap.Total)

	m.logSample(snap, processed, eta, ok)
	return processed >= snap.Total
}

func (m *Monitor) logSample(snap runstate.Snapshot, processed int64, eta time.Duration, ok bool) {
	if snap.Total <= 0 {
		return
	}
	percent := float64(processed) / float64(snap.Total) * 100
	if m.sampler.ShouldLog(percent) {
		m.logger.Info("run progress",
			logging.Int64("processed", processed),
			logging.Int64("total", snap.Total),
			logging.Int64("failed", snap.Failed),
			logging.String("eta", FormatETA(eta, ok)),
		)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func describeLine(snap runstate.Snapshot, eta time.Duration, ok bool) string {
	return fmt.Sprintf("converting (ok %d, skip %d, fail %d, eta %s)",
		snap.Success, snap.Skipped, snap.Failed, FormatETA(eta, ok))
}
