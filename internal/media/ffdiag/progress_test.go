package ffdiag

import (
	"math"
	"testing"
)

func collect(stage string, total float64) (*ProgressTracker, *[]Progress) {
	var events []Progress
	tracker := NewProgressTracker(stage, total, func(p Progress) {
		events = append(events, p)
	})
	return tracker, &events
}

func TestProgressTrackerFollowsExtractionTranscript(t *testing.T) {
	lines := transcript(t, "extract_streams.txt")
	parser := NewInfoParser()
	var tracker *ProgressTracker
	var events []Progress
	for _, line := range lines {
		if tracker == nil {
			done, err := parser.Feed(line)
			if err != nil {
				t.Fatalf("Feed: %v", err)
			}
			if !done {
				continue
			}
			info, ok := parser.Result()
			if !ok {
				t.Fatal("no media info")
			}
			tracker = NewProgressTracker("stream", PlannedTotal(info.Duration, Unbounded), func(p Progress) {
				events = append(events, p)
			})
		}
		tracker.Observe(line)
	}
	tracker.Finish()

	if len(events) != 6 {
		t.Fatalf("got %d events %+v, want 6", len(events), events)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Elapsed <= events[i-1].Elapsed {
			t.Fatalf("event %d not increasing: %v -> %v", i, events[i-1].Elapsed, events[i].Elapsed)
		}
	}
	last := events[len(events)-1]
	if !last.Done || last.Elapsed != 902.22 || last.Total != 902.22 {
		t.Fatalf("final event = %+v", last)
	}
	if last.Percent() != 100 {
		t.Fatalf("final percent = %v", last.Percent())
	}
}

func TestProgressTrackerClampsAndDeduplicates(t *testing.T) {
	tracker, events := collect("area", 10)
	tracker.Observe("frame=1 time=00:00:02.00 bitrate=N/A")
	tracker.Observe("frame=1 time=00:00:02.00 bitrate=N/A")
	tracker.Observe("frame=1 time=00:00:01.00 bitrate=N/A")
	tracker.Observe("frame=1 time=N/A bitrate=N/A")
	tracker.Observe("frame=9 time=00:00:30.00 bitrate=N/A")
	tracker.Observe("frame=9 time=00:00:40.00 bitrate=N/A")
	tracker.Finish()
	tracker.Finish()
	tracker.Observe("frame=9 time=00:00:50.00 bitrate=N/A")

	got := *events
	if len(got) != 3 {
		t.Fatalf("events = %+v, want 3", got)
	}
	if got[0].Elapsed != 2 || got[1].Elapsed != 10 {
		t.Fatalf("events = %+v", got)
	}
	if !got[2].Done || got[2].Elapsed != 10 {
		t.Fatalf("final = %+v", got[2])
	}
}

func TestProgressTrackerWithoutMarkersEmitsFinalOnly(t *testing.T) {
	tracker, events := collect("wav", 42.5)
	tracker.Observe("Press [q] to stop, [?] for help")
	tracker.Finish()
	if len(*events) != 1 {
		t.Fatalf("events = %+v, want exactly one", *events)
	}
	if (*events)[0].Elapsed != 42.5 || (*events)[0].Stage != "wav" {
		t.Fatalf("final event = %+v", (*events)[0])
	}
}

func TestProgressTrackerAdvance(t *testing.T) {
	tracker, events := collect("props", 5)
	tracker.Advance(0)
	tracker.Advance(1.5)
	tracker.Advance(1.2)
	tracker.Finish()
	if len(*events) != 2 {
		t.Fatalf("events = %+v", *events)
	}
}

func TestProgressTrackerNilEmit(t *testing.T) {
	tracker := NewProgressTracker("stream", 3, nil)
	tracker.Observe("time=00:00:01.00")
	tracker.Finish()
	if tracker.Total() != 3 {
		t.Fatalf("Total = %v", tracker.Total())
	}
}

func TestPlannedTotal(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		end      float64
		want     float64
	}{
		{"unbounded", 902.22, Unbounded, 902.22},
		{"window shorter", 902.22, 60, 60},
		{"window longer", 30, 60, 30},
		{"non-positive end", 30, 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlannedTotal(tt.duration, tt.end); got != tt.want {
				t.Fatalf("PlannedTotal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	if got := (Progress{Elapsed: 5, Total: 20}).Percent(); math.Abs(got-25) > 1e-9 {
		t.Fatalf("Percent = %v", got)
	}
	if got := (Progress{Total: 0, Done: true}).Percent(); got != 100 {
		t.Fatalf("empty total done percent = %v", got)
	}
	if got := (Progress{Total: 0}).Percent(); got != 0 {
		t.Fatalf("empty total percent = %v", got)
	}
}

func TestElapsedTime(t *testing.T) {
	if got, ok := ElapsedTime("size= 1kB time=00:01:02.50 bitrate=1kbits/s"); !ok || got != 62.5 {
		t.Fatalf("ElapsedTime = %v, %v", got, ok)
	}
	if _, ok := ElapsedTime("size= 1kB time=N/A"); ok {
		t.Fatal("N/A time accepted")
	}
	if _, ok := ElapsedTime("Duration: 00:00:01.00"); ok {
		t.Fatal("line without time= accepted")
	}
}
