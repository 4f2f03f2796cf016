// Package deps verifies the external binaries flacmirror shells out to.
package deps

import (
	"os/exec"
	"strings"

	"flacmirror/internal/services"
)

// Requirement defines an external dependency flacmirror relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a dependency.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Requirements returns the binaries a run needs, given the configured
// encoder command.
func Requirements(encoderBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "encoder",
			Command:     encoderBinary,
			Description: "MP3 encoder invoked once per conversion job",
		},
	}
}

// lookPath is a hook for tests.
var lookPath = exec.LookPath

// Check evaluates the provided requirements and reports availability.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{Requirement: req}
		status.Command = cmd
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := lookPath(cmd); err != nil {
			status.Detail = "binary " + cmd + " not found in PATH"
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Verify returns a fatal error when any required binary is missing.
func Verify(encoderBinary string) error {
	for _, status := range Check(Requirements(encoderBinary)) {
		if !status.Available {
			return services.Wrap(services.ErrNotFound, "deps", "preflight", status.Detail, nil)
		}
	}
	return nil
}
