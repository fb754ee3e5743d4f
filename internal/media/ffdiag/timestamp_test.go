package ffdiag

import (
	"math"
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"00:15:02.22", 902.22, false},
		{"01:00:00.00", 3600, false},
		{"-00:00:00.05", -0.05, false},
		{" 00:00:01.5 ", 1.5, false},
		{"N/A", 0, true},
		{"15:02.22", 0, true},
		{"00:aa:00.00", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if tt.wantErr {
			if err == nil || !IsParseError(err) {
				t.Errorf("ParseTimestamp(%q) error = %v, want parse error", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error = %v", tt.in, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(902.22); got != "00:15:02.22" {
		t.Fatalf("FormatTimestamp = %q", got)
	}
	if got := FormatTimestamp(-3); got != "00:00:00.00" {
		t.Fatalf("negative FormatTimestamp = %q", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := FormatSeconds(30); got != "30" {
		t.Fatalf("FormatSeconds(30) = %q", got)
	}
	if got := FormatSeconds(1.25); got != "1.25" {
		t.Fatalf("FormatSeconds(1.25) = %q", got)
	}
}

func TestUnbounded(t *testing.T) {
	if !IsUnbounded(Unbounded) {
		t.Fatal("Unbounded not recognised")
	}
	if IsUnbounded(1e12) {
		t.Fatal("large finite value treated as unbounded")
	}
}
