// Package dispatch fans a job list out to a bounded pool of workers.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"flacmirror/internal/scan"
)

// Handler processes one job. seq is the 1-based pickup order across the
// whole pool, assigned at the moment a worker takes the job.
type Handler func(ctx context.Context, seq int, job scan.Job)

// Run feeds jobs to workers goroutines and blocks until every dispatched
// job has been handled. Cancelling ctx stops the feed; jobs already picked
// up run to completion so no job is left half-processed.
func Run(ctx context.Context, jobs []scan.Job, workers int, handler Handler) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers == 0 {
		return
	}

	feed := make(chan scan.Job)
	var seq atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range feed {
				handler(ctx, int(seq.Add(1)), job)
			}
		}()
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			close(feed)
			wg.Wait()
			return
		case feed <- job:
		}
	}
	close(feed)
	wg.Wait()
}
