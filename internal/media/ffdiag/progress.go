package ffdiag

import (
	"math"
	"strings"
)

// Progress is one elapsed-time update from a running ffmpeg process.
type Progress struct {
	Stage   string
	Elapsed float64
	Total   float64
	Done    bool
}

// Percent returns the completion ratio in [0,100].
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		if p.Done {
			return 100
		}
		return 0
	}
	return math.Min(100, p.Elapsed/p.Total*100)
}

// ProgressFunc receives progress updates. It is called from the goroutine
// consuming ffmpeg output and must not block for long.
type ProgressFunc func(Progress)

// PlannedTotal returns the progress denominator for a window ending at end
// over an input of the given duration.
func PlannedTotal(duration, end float64) float64 {
	if IsUnbounded(end) || end <= 0 {
		return duration
	}
	return math.Min(duration, end)
}

// ProgressTracker converts "time=" markers into monotonic progress updates.
type ProgressTracker struct {
	stage    string
	total    float64
	last     float64
	emit     ProgressFunc
	finished bool
}

// NewProgressTracker returns a tracker reporting against total seconds. A nil
// emit function makes every call a no-op.
func NewProgressTracker(stage string, total float64, emit ProgressFunc) *ProgressTracker {
	if total < 0 {
		total = 0
	}
	return &ProgressTracker{stage: stage, total: total, emit: emit}
}

// Total returns the planned total in seconds.
func (t *ProgressTracker) Total() float64 {
	return t.total
}

// Observe scans line for an elapsed-time token and emits an update when the
// elapsed time strictly increases. Unreadable tokens such as "time=N/A" are
// skipped.
func (t *ProgressTracker) Observe(line string) {
	if t.finished {
		return
	}
	elapsed, ok := ElapsedTime(line)
	if !ok {
		return
	}
	t.advance(elapsed)
}

// Advance reports an elapsed time obtained from another source, such as a
// showinfo pts_time value.
func (t *ProgressTracker) Advance(elapsed float64) {
	if t.finished {
		return
	}
	t.advance(elapsed)
}

func (t *ProgressTracker) advance(elapsed float64) {
	elapsed = math.Min(elapsed, t.total)
	if elapsed <= t.last {
		return
	}
	t.last = elapsed
	if t.emit != nil {
		t.emit(Progress{Stage: t.stage, Elapsed: elapsed, Total: t.total})
	}
}

// Finish emits the final update at exactly the planned total. Subsequent
// calls do nothing.
func (t *ProgressTracker) Finish() {
	if t.finished {
		return
	}
	t.finished = true
	t.last = t.total
	if t.emit != nil {
		t.emit(Progress{Stage: t.stage, Elapsed: t.total, Total: t.total, Done: true})
	}
}

// ElapsedTime extracts the value of the first "time=" token on line.
func ElapsedTime(line string) (float64, bool) {
	for _, item := range strings.Fields(line) {
		if !strings.HasPrefix(item, "time=") {
			continue
		}
		seconds, err := ParseTimestamp(strings.TrimPrefix(item, "time="))
		if err != nil {
			return 0, false
		}
		return seconds, true
	}
	return 0, false
}
