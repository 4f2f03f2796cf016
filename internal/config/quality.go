package config

import (
	"fmt"
	"strconv"
	"strings"
)

// QualityMode distinguishes the two encoder targets.
type QualityMode int

const (
	// ConstantBitrate encodes at a fixed kbps rate.
	ConstantBitrate QualityMode = iota
	// VariableQuality encodes at a VBR level, 0-9 with lower meaning
	// higher quality.
	VariableQuality
)

// Quality is the encoding target shared read-only by all workers.
type Quality struct {
	Mode    QualityMode
	Bitrate int // kbps, ConstantBitrate only
	Level   int // 0-9, VariableQuality only
}

// DefaultQuality is applied when no bitrate flag is given.
var DefaultQuality = Quality{Mode: VariableQuality, Level: 2}

// ParseQuality parses a bitrate token: digits followed by "k" for constant
// bitrate, or "V"/"v" followed by a single digit for variable quality.
func ParseQuality(token string) (Quality, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Quality{}, fmt.Errorf("bitrate value is empty")
	}

	if len(trimmed) == 2 && (trimmed[0] == 'V' || trimmed[0] == 'v') && trimmed[1] >= '0' && trimmed[1] <= '9' {
		return Quality{Mode: VariableQuality, Level: int(trimmed[1] - '0')}, nil
	}

	if strings.HasSuffix(trimmed, "k") {
		digits := strings.TrimSuffix(trimmed, "k")
		rate, err := strconv.Atoi(digits)
		if err == nil && rate > 0 && digits == strconv.Itoa(rate) {
			return Quality{Mode: ConstantBitrate, Bitrate: rate}, nil
		}
	}

	return Quality{}, fmt.Errorf("invalid bitrate %q: expected a constant rate like 192k or a variable level like V2", token)
}

func (q Quality) String() string {
	if q.Mode == ConstantBitrate {
		return fmt.Sprintf("%dk", q.Bitrate)
	}
	return fmt.Sprintf("V%d", q.Level)
}
