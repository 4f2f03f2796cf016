package config

import (
	"fmt"
	"strings"
)

func (s *Settings) normalize() {
	s.Encoder.Binary = strings.TrimSpace(s.Encoder.Binary)
	if s.Encoder.Binary == "" {
		s.Encoder.Binary = defaultEncoderBinary
	}
	if s.Locking.TimeoutSeconds <= 0 {
		s.Locking.TimeoutSeconds = defaultLockTimeoutSeconds
	}
	if s.Locking.PollMillis <= 0 {
		s.Locking.PollMillis = defaultLockPollMillis
	}
	if s.Locking.StaleMinutes <= 0 {
		s.Locking.StaleMinutes = defaultLockStaleMinutes
	}
	if s.Progress.IntervalSeconds <= 0 {
		s.Progress.IntervalSeconds = defaultProgressIntervalSeconds
	}
	if s.Progress.WarmupSeconds < 0 {
		s.Progress.WarmupSeconds = defaultProgressWarmupSeconds
	}
	if s.Capacity.OutputRatio <= 0 {
		s.Capacity.OutputRatio = defaultOutputRatio
	}
	if s.Capacity.SafetyMargin < 0 {
		s.Capacity.SafetyMargin = defaultSafetyMargin
	}
	s.Logging.Format = strings.ToLower(strings.TrimSpace(s.Logging.Format))
	if s.Logging.Format == "" {
		s.Logging.Format = "console"
	}
	s.Logging.Level = strings.ToLower(strings.TrimSpace(s.Logging.Level))
	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
}

// Validate rejects settings no run could operate under.
func (s *Settings) Validate() error {
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	if s.Capacity.OutputRatio > 1 {
		return fmt.Errorf("capacity output_ratio must not exceed 1.0, got %g", s.Capacity.OutputRatio)
	}
	switch s.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging format must be console or json, got %q", s.Logging.Format)
	}
	return nil
}

// EffectiveWorkers resolves the pool size for a run: the explicit override
// wins, then the config file, then the CPU-derived default.
func (s *Settings) EffectiveWorkers(override int) int {
	if override > 0 {
		return override
	}
	if s.Workers > 0 {
		return s.Workers
	}
	return DefaultWorkers()
}
