package progress

import (
	"fmt"
	"time"
)

// ETA estimates remaining wall time from throughput so far. It reports
// ok=false during the warmup window and before the first completed job,
// when the estimate would be dominated by startup noise.
func ETA(elapsed time.Duration, processed, total int64, warmup time.Duration) (time.Duration, bool) {
	if processed <= 0 || elapsed < warmup {
		return 0, false
	}
	remaining := total - processed
	if remaining <= 0 {
		return 0, true
	}
	perJob := elapsed / time.Duration(processed)
	return perJob * time.Duration(remaining), true
}

// FormatETA renders an estimate for the progress line.
func FormatETA(eta time.Duration, ok bool) string {
	if !ok {
		return "calculating"
	}
	if eta <= 0 {
		return "done"
	}
	eta = eta.Round(time.Second)
	if eta < time.Second {
		eta = time.Second
	}
	if eta >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(eta.Hours()), int(eta.Minutes())%60)
	}
	if eta >= time.Minute {
		return fmt.Sprintf("%dm%02ds", int(eta.Minutes()), int(eta.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(eta.Seconds()))
}
