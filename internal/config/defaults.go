package config

import "runtime"

const (
	defaultEncoderBinary = "ffmpeg"

	defaultLockTimeoutSeconds = 5
	defaultLockPollMillis     = 100
	defaultLockStaleMinutes   = 10

	defaultProgressIntervalSeconds = 2
	defaultProgressWarmupSeconds   = 3

	// Empirical output/input size ratio for lossy encodes of FLAC
	// archives, applied regardless of quality mode.
	defaultOutputRatio = 0.40
	// Extra headroom on top of the estimate.
	defaultSafetyMargin = 0.10

	maxDefaultWorkers = 8
)

// Default returns the baseline settings used when no config file is present.
func Default() Settings {
	return Settings{
		Workers: 0, // 0 means derive from CPU count
		Encoder: Encoder{Binary: defaultEncoderBinary},
		Locking: Locking{
			TimeoutSeconds: defaultLockTimeoutSeconds,
			PollMillis:     defaultLockPollMillis,
			StaleMinutes:   defaultLockStaleMinutes,
		},
		Progress: Progress{
			IntervalSeconds: defaultProgressIntervalSeconds,
			WarmupSeconds:   defaultProgressWarmupSeconds,
		},
		Capacity: Capacity{
			OutputRatio:  defaultOutputRatio,
			SafetyMargin: defaultSafetyMargin,
		},
		Logging: Logging{Format: "console", Level: "info"},
	}
}

// DefaultWorkers derives the worker pool size from detected CPU parallelism:
// three quarters of the cores, clamped to [1, 8].
func DefaultWorkers() int {
	workers := runtime.NumCPU() * 3 / 4
	if workers < 1 {
		workers = 1
	}
	if workers > maxDefaultWorkers {
		workers = maxDefaultWorkers
	}
	return workers
}
