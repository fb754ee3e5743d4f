package ffdiag

import (
	"fmt"
	"strconv"
	"strings"
)

// FrameProperty is the structural fingerprint of one decoded frame as reported
// by ffmpeg's showinfo filter.
type FrameProperty struct {
	PTSTime        float64   `json:"pts_time"`
	Position       int64     `json:"pos"`
	Checksum       string    `json:"checksum"`
	PlaneChecksums []string  `json:"plane_checksum"`
	Mean           []float64 `json:"mean"`
	Stdev          []float64 `json:"stdev"`
	IsKeyframe     bool      `json:"is_key"`
	FrameType      string    `json:"type"`
	SAD            float64   `json:"sad"`
}

// IsFrameLine reports whether line is a showinfo per-frame report.
func IsFrameLine(line string) bool {
	return strings.Contains(line, "pts_time:") && strings.Contains(line, "checksum:")
}

// ParseFrameLine reads a showinfo line. offset is added to the reported
// presentation time so callers get timestamps relative to the input start.
// Recent ffmpeg releases no longer print "pos:"; such frames report position 0.
func ParseFrameLine(line string, offset float64) (FrameProperty, error) {
	var prop FrameProperty

	ptsToken, ok := tokenAfter(line, "pts_time:")
	if !ok {
		return prop, fmt.Errorf("%w: frame line without pts_time", errMalformed)
	}
	pts, err := strconv.ParseFloat(ptsToken, 64)
	if err != nil {
		return prop, fmt.Errorf("%w: pts_time %q", errMalformed, ptsToken)
	}
	prop.PTSTime = pts + offset

	if posToken, ok := tokenAfter(line, " pos:"); ok {
		pos, err := strconv.ParseInt(posToken, 10, 64)
		if err != nil {
			return prop, fmt.Errorf("%w: pos %q", errMalformed, posToken)
		}
		prop.Position = pos
	}

	checksum, ok := tokenAfter(line, " checksum:")
	if !ok {
		return prop, fmt.Errorf("%w: frame line without checksum", errMalformed)
	}
	prop.Checksum = checksum

	if planes, ok := bracketAfter(line, "plane_checksum:"); ok {
		prop.PlaneChecksums = planes
	}
	if prop.Mean, err = floatsAfter(line, "mean:"); err != nil {
		return prop, err
	}
	if prop.Stdev, err = floatsAfter(line, "stdev:"); err != nil {
		return prop, err
	}

	if keyToken, ok := tokenAfter(line, " iskey:"); ok {
		key, err := strconv.Atoi(keyToken)
		if err != nil {
			return prop, fmt.Errorf("%w: iskey %q", errMalformed, keyToken)
		}
		prop.IsKeyframe = key != 0
	}
	if frameType, ok := tokenAfter(line, " type:"); ok {
		prop.FrameType = frameType
	}
	return prop, nil
}

// FilterFrames drops frames outside [start, end] and frames whose byte
// position is negative. The input slice is not modified.
func FilterFrames(frames []FrameProperty, start, end float64) []FrameProperty {
	out := make([]FrameProperty, 0, len(frames))
	for _, frame := range frames {
		if frame.PTSTime < start || frame.PTSTime > end {
			continue
		}
		if frame.Position < 0 {
			continue
		}
		out = append(out, frame)
	}
	return out
}

// tokenAfter returns the whitespace-delimited value following marker.
func tokenAfter(line, marker string) (string, bool) {
	_, rest, found := strings.Cut(line, marker)
	if !found {
		return "", false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// bracketAfter returns the fields of the "[a b c]" list following marker.
// Older ffmpeg builds pad these lists with backspace characters.
func bracketAfter(line, marker string) ([]string, bool) {
	_, rest, found := strings.Cut(line, marker)
	if !found {
		return nil, false
	}
	rest = strings.TrimLeft(rest, " ")
	if !strings.HasPrefix(rest, "[") {
		return nil, false
	}
	body, _, found := strings.Cut(rest[1:], "]")
	if !found {
		return nil, false
	}
	body = strings.ReplaceAll(body, "\b", " ")
	return strings.Fields(body), true
}

func floatsAfter(line, marker string) ([]float64, error) {
	fields, ok := bracketAfter(line, marker)
	if !ok {
		return nil, nil
	}
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q", errMalformed, strings.TrimSuffix(marker, ":"), field)
		}
		values = append(values, value)
	}
	return values, nil
}
