// Package capacity estimates the disk space a run will consume and fails
// fast when the destination filesystem cannot hold it.
package capacity

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"flacmirror/internal/services"
)

// Estimate is the projected disk usage for a run.
type Estimate struct {
	InputBytes    int64
	RequiredBytes int64
	FreeBytes     int64
}

// statfs is a hook for tests.
var statfs = func(path string) (free int64, err error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}

// Plan projects output size as a fixed fraction of the input corpus plus a
// safety margin and compares it against free space on the destination
// filesystem. The ratio applies regardless of quality mode.
func Plan(destRoot string, inputBytes int64, outputRatio, safetyMargin float64) (Estimate, error) {
	required := int64(float64(inputBytes) * outputRatio * (1 + safetyMargin))

	free, err := statfs(destRoot)
	if err != nil {
		return Estimate{}, services.Wrap(services.ErrTransient, "capacity", "statfs", "free space query failed for "+destRoot, err)
	}

	est := Estimate{InputBytes: inputBytes, RequiredBytes: required, FreeBytes: free}
	if required > free {
		detail := fmt.Sprintf("estimated %s required but only %s free on %s",
			humanize.IBytes(uint64(required)), humanize.IBytes(uint64(free)), destRoot)
		return est, services.Wrap(services.ErrConfiguration, "capacity", "check", detail, nil)
	}
	return est, nil
}
