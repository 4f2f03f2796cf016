package report

import (
	"path/filepath"

	"flacmirror/internal/fileutil"
	"flacmirror/internal/runstate"
	"flacmirror/internal/services"
)

// ErrorLogName is the filename the persisted error log is published under
// in the destination root.
const ErrorLogName = "conversion_errors.log"

// FinalizeErrorLog copies the run's error log into the destination root when
// any diagnostics were recorded. It returns the published path, or "" when
// there was nothing to publish.
func FinalizeErrorLog(store *runstate.Store, destDir string) (string, error) {
	if !store.HasErrorLog() {
		return "", nil
	}
	published := filepath.Join(destDir, ErrorLogName)
	if err := fileutil.CopyFile(store.ErrorLogPath(), published); err != nil {
		return "", services.Wrap(services.ErrTransient, "report", "publish error log", "could not copy error log into destination", err)
	}
	return published, nil
}
