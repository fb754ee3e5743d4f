package ffdiag

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unbounded marks an open-ended time window ("until the end of the input").
var Unbounded = math.Inf(1)

// IsUnbounded reports whether end denotes an open-ended window.
func IsUnbounded(end float64) bool {
	return math.IsInf(end, 1)
}

// ParseTimestamp converts an ffmpeg "H:MM:SS.ms" clock value to seconds.
// A leading minus sign is accepted because ffmpeg reports small negative
// times while priming decoders.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	negative := strings.HasPrefix(value, "-")
	trimmed := strings.TrimPrefix(value, "-")
	fields := strings.Split(trimmed, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("%w: timestamp %q", errMalformed, value)
	}
	hours, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp hours %q", errMalformed, value)
	}
	minutes, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp minutes %q", errMalformed, value)
	}
	seconds, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp seconds %q", errMalformed, value)
	}
	total := hours*3600 + minutes*60 + seconds
	if negative {
		total = -total
	}
	return total, nil
}

// FormatTimestamp renders seconds as HH:MM:SS.ss for console output.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	rem := seconds - float64(hours*3600+minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, rem)
}

// FormatSeconds renders seconds the way ffmpeg's -ss/-to options accept them.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
