// Package sniff classifies audio files by content signature rather than
// filename extension.
package sniff

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Kind is the result of classifying a candidate file.
type Kind int

const (
	// Invalid means the file is neither a genuine source nor a genuine
	// output, including unreadable, truncated, and misnamed files.
	Invalid Kind = iota
	// ValidSource is a FLAC stream.
	ValidSource
	// ValidOutput is an MP3 stream of plausible size.
	ValidOutput
)

// MinOutputSize is the smallest byte count a real encoder product can have.
// Anything below it is treated as a partial leftover.
const MinOutputSize = 4096

const headerLen = 10

var flacMarker = []byte("fLaC")

var id3Marker = []byte("ID3")

func (k Kind) String() string {
	switch k {
	case ValidSource:
		return "source"
	case ValidOutput:
		return "output"
	default:
		return "invalid"
	}
}

// Classify reads a small header from path and matches known signatures.
// Classification never fails hard: any read problem yields Invalid.
func Classify(path string) Kind {
	file, err := os.Open(path)
	if err != nil {
		return Invalid
	}
	defer file.Close()

	header := make([]byte, headerLen)
	n, err := io.ReadFull(file, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Invalid
	}
	header = header[:n]

	if bytes.HasPrefix(header, flacMarker) {
		return ValidSource
	}
	if isMP3Header(header) {
		info, err := file.Stat()
		if err != nil || info.Size() < MinOutputSize {
			return Invalid
		}
		return ValidOutput
	}
	return Invalid
}

// isMP3Header matches either an ID3v2 tag or a bare MPEG audio frame sync.
func isMP3Header(header []byte) bool {
	if bytes.HasPrefix(header, id3Marker) {
		return true
	}
	return len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0
}
