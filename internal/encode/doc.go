// Package encode drives the external encoder and the per-job conversion
// state machine: dry-run short-circuit, existing-output check, encode to a
// temporary path, atomic publish, shared state updates.
package encode
