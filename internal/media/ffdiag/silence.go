package ffdiag

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SilencePeriod is a silent interval in milliseconds from the input start.
type SilencePeriod struct {
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms"`
}

// DurationMS returns the length of the period.
func (s SilencePeriod) DurationMS() int64 {
	return s.EndMS - s.StartMS
}

// SilenceParser collects silencedetect filter reports.
type SilenceParser struct {
	offset  float64
	open    bool
	start   float64
	periods []SilencePeriod
}

// NewSilenceParser returns a parser whose timestamps are shifted by offset
// seconds.
func NewSilenceParser(offset float64) *SilenceParser {
	return &SilenceParser{offset: offset}
}

// Feed consumes one diagnostic line.
func (p *SilenceParser) Feed(line string) error {
	if token, ok := tokenAfter(line, "silence_start:"); ok {
		start, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return fmt.Errorf("%w: silence_start %q", errMalformed, token)
		}
		p.open = true
		p.start = start
		return nil
	}
	if token, ok := tokenAfter(line, "silence_end:"); ok {
		end, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return fmt.Errorf("%w: silence_end %q", errMalformed, token)
		}
		if !p.open {
			return nil
		}
		p.open = false
		p.periods = append(p.periods, p.period(p.start, end))
	}
	return nil
}

// Finish closes a silence still open when the stream ended at windowEnd
// seconds (relative to the filtered input) and returns all periods.
func (p *SilenceParser) Finish(windowEnd float64) []SilencePeriod {
	if p.open && windowEnd > p.start {
		p.periods = append(p.periods, p.period(p.start, windowEnd))
	}
	p.open = false
	return p.periods
}

func (p *SilenceParser) period(start, end float64) SilencePeriod {
	if start < 0 {
		start = 0
	}
	return SilencePeriod{
		StartMS: int64(math.Round((start + p.offset) * 1000)),
		EndMS:   int64(math.Round((end + p.offset) * 1000)),
	}
}

// IsSilenceLine reports whether line carries a silencedetect report.
func IsSilenceLine(line string) bool {
	return strings.Contains(line, "silence_start:") || strings.Contains(line, "silence_end:")
}
