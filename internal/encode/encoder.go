package encode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"flacmirror/internal/config"
	"flacmirror/internal/services"
)

// Encoder is the capability a conversion worker needs from the external
// encoder: write dstTempPath from srcPath at the given quality, returning
// the tool's diagnostic output on failure.
type Encoder interface {
	Encode(ctx context.Context, srcPath, dstTempPath string, quality config.Quality) (diagnostic string, err error)
}

// FFmpeg invokes the ffmpeg binary once per job. The output format follows
// from the destination filename, which is why temp paths keep the target
// extension.
type FFmpeg struct {
	binary string
}

// NewFFmpeg constructs an encoder around the configured binary.
func NewFFmpeg(binary string) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary}
}

// runCommand is a hook for tests.
var runCommand = func(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// Encode runs one conversion. The returned diagnostic carries the encoder's
// stderr and is only meaningful when err is non-nil.
func (f *FFmpeg) Encode(ctx context.Context, srcPath, dstTempPath string, quality config.Quality) (string, error) {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-v", "error",
		"-y",
		"-i", srcPath,
		"-codec:a", "libmp3lame",
	}
	args = append(args, qualityArgs(quality)...)
	args = append(args, dstTempPath)

	diagnostic, err := runCommand(ctx, f.binary, args)
	if err != nil {
		return diagnostic, services.Wrap(services.ErrExternalTool, "encode", "run encoder", "encoder exited abnormally", err)
	}
	return "", nil
}

func qualityArgs(quality config.Quality) []string {
	if quality.Mode == config.ConstantBitrate {
		return []string{"-b:a", fmt.Sprintf("%dk", quality.Bitrate)}
	}
	return []string{"-q:a", fmt.Sprintf("%d", quality.Level)}
}
