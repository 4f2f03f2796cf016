// Package config defines the immutable per-run configuration and the
// optional TOML settings file that tunes ambient behavior.
package config
