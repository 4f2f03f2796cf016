package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Encoder contains settings for the external encoder binary.
type Encoder struct {
	Binary string `toml:"binary"`
}

// Locking contains timing for the filesystem lock primitive.
type Locking struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	PollMillis     int `toml:"poll_millis"`
	StaleMinutes   int `toml:"stale_minutes"`
}

// Progress contains timing for the live progress monitor.
type Progress struct {
	IntervalSeconds int `toml:"interval_seconds"`
	WarmupSeconds   int `toml:"warmup_seconds"`
}

// Capacity contains the output size estimation parameters.
type Capacity struct {
	OutputRatio  float64 `toml:"output_ratio"`
	SafetyMargin float64 `toml:"safety_margin"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Settings holds the ambient configuration read from the optional TOML file.
// Everything here has a working default; the file only overrides.
type Settings struct {
	Workers  int      `toml:"workers"`
	Encoder  Encoder  `toml:"encoder"`
	Locking  Locking  `toml:"locking"`
	Progress Progress `toml:"progress"`
	Capacity Capacity `toml:"capacity"`
	Logging  Logging  `toml:"logging"`
}

// Run is the immutable per-invocation configuration assembled from command
// line arguments and flags. It is constructed once and shared read-only by
// every component.
type Run struct {
	SourceDir string
	DestDir   string
	Quality   Quality
	Overwrite bool
	DryRun    bool
	Workers   int
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/flacmirror/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults apply.
func Load(path string) (*Settings, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
