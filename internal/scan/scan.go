// Package scan discovers conversion jobs by walking the source tree and
// filtering candidates through content-signature validation.
package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"flacmirror/internal/services"
	"flacmirror/internal/sniff"
)

const (
	sourceExt = ".flac"
	outputExt = ".mp3"
)

// Job is one source-to-destination conversion unit. Immutable once
// enumerated; consumed exactly once by a worker.
type Job struct {
	Source string
	Dest   string
}

// Result is the output of a source tree scan.
type Result struct {
	Jobs []Job
	// TotalSourceBytes sums the sizes of all accepted source files and
	// feeds the capacity estimate.
	TotalSourceBytes int64
}

// Total returns the job count.
func (r Result) Total() int {
	return len(r.Jobs)
}

// Walk enumerates candidate files under sourceRoot by extension, keeps only
// genuine sources per content signature, and maps each onto destRoot with
// the subdirectory structure preserved and the extension swapped. Files
// merely named like sources are silently excluded.
func Walk(sourceRoot, destRoot string) (Result, error) {
	var result Result

	err := filepath.WalkDir(sourceRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), sourceExt) {
			return nil
		}
		if sniff.Classify(path) != sniff.ValidSource {
			return nil
		}

		dest, err := MapDest(sourceRoot, destRoot, path)
		if err != nil {
			return err
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		result.Jobs = append(result.Jobs, Job{Source: path, Dest: dest})
		result.TotalSourceBytes += info.Size()
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, services.Wrap(services.ErrNotFound, "scan", "walk", "source directory does not exist", err)
		}
		return Result{}, services.Wrap(services.ErrTransient, "scan", "walk", "source tree enumeration failed", err)
	}

	return result, nil
}

// MapDest computes the destination path for one source file: the path
// relative to sourceRoot joined onto destRoot, with the extension swapped.
func MapDest(sourceRoot, destRoot, sourcePath string) (string, error) {
	rel, err := filepath.Rel(sourceRoot, sourcePath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "scan", "map destination", "source path escapes source root", err)
	}
	ext := filepath.Ext(rel)
	return filepath.Join(destRoot, rel[:len(rel)-len(ext)]+outputExt), nil
}
