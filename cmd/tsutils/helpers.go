package main

import (
	"fmt"
	"strconv"
	"strings"

	"tsutils/internal/media/ffdiag"
	"tsutils/internal/services"
	"tsutils/internal/services/ffmpeg"
)

// windowFlags holds the --start/--end pair shared by the ffmpeg commands.
type windowFlags struct {
	start string
	end   string
}

// resolve parses the window. Values are seconds or H:MM:SS clock values; an
// empty end means the end of the input.
func (w windowFlags) resolve() (float64, float64, error) {
	start, err := parseTimeFlag("start", w.start, 0)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimeFlag("end", w.end, ffdiag.Unbounded)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTimeFlag(name, value string, fallback float64) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	if strings.Contains(value, ":") {
		seconds, err := ffdiag.ParseTimestamp(value)
		if err != nil {
			return 0, fmt.Errorf("%w: --%s %q", services.ErrValidation, name, value)
		}
		return seconds, nil
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: --%s %q", services.ErrValidation, name, value)
	}
	return seconds, nil
}

// parseTracks reads a comma separated list of track indices.
func parseTracks(name, value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var tracks []int
	for _, field := range strings.Split(value, ",") {
		index, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || index < 0 {
			return nil, fmt.Errorf("%w: --%s entry %q", services.ErrValidation, name, field)
		}
		tracks = append(tracks, index)
	}
	return tracks, nil
}

// parseRect reads "x,y,width,height" as fractions of the frame size.
func parseRect(value string) (ffmpeg.NormalizedRect, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ffmpeg.FullFrame, nil
	}
	fields := strings.Split(value, ",")
	if len(fields) != 4 {
		return ffmpeg.NormalizedRect{}, fmt.Errorf("%w: --rect wants x,y,width,height, got %q", services.ErrValidation, value)
	}
	var parts [4]float64
	for i, field := range fields {
		f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return ffmpeg.NormalizedRect{}, fmt.Errorf("%w: --rect component %q", services.ErrValidation, field)
		}
		parts[i] = f
	}
	return ffmpeg.NormalizedRect{X: parts[0], Y: parts[1], Width: parts[2], Height: parts[3]}, nil
}

func formatRatio(r ffdiag.Ratio) string {
	if r.Num == 0 && r.Den == 0 {
		return "-"
	}
	return r.String()
}
