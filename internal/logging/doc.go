// Package logging wires log/slog with the console and JSON handlers used by
// every flacmirror component, plus the shared attribute helpers.
package logging
