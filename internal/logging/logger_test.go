package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tsutils/internal/config"
	"tsutils/internal/logging"
	"tsutils/internal/services"
)

func TestNewFromConfigWritesDailyJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.RetentionDays = 0

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("probe finished", logging.String("input", "/rec/show.ts"))

	path := logging.LogFilePath(cfg.Paths.LogDir, time.Now())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, data)
	}
	if record["msg"] != "probe finished" || record["level"] != "info" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewFromConfigPrunesOldLogs(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.RetentionDays = 7

	old := filepath.Join(cfg.Paths.LogDir, "tsutils-20200101.log")
	unrelated := filepath.Join(cfg.Paths.LogDir, "notes.txt")
	for _, p := range []string{old, unrelated} {
		if err := os.WriteFile(p, []byte("{}\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		stamp := time.Now().AddDate(0, 0, -30)
		if err := os.Chtimes(p, stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := logging.NewFromConfig(&cfg); err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log to be pruned, stat err = %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "ffmpeg")
	logger.Info("probe finished",
		logging.String(logging.FieldOperation, "info"),
		logging.String(logging.FieldInput, "/rec/show.ts"),
		logging.Int("sound_tracks", 2),
		logging.String(logging.FieldRequestID, "abc"),
	)

	out := buf.String()
	for _, want := range []string{"INFO [ffmpeg] Info · show.ts - probe finished", "Audio Tracks: 2", "1 more field hidden"} {
		if !strings.Contains(out, want) {
			t.Fatalf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "invalid", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOperation(ctx, "stream")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldOperation] != "stream" {
		t.Fatalf("operation = %v", record[logging.FieldOperation])
	}
	if record[logging.FieldRequestID] != "req-xyz" {
		t.Fatalf("request_id = %v", record[logging.FieldRequestID])
	}
}

func TestWithLevelOverrideQuietsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatal(err)
	}
	quiet := logging.WithLevelOverride(logger, slog.LevelWarn)
	quiet.Info("suppressed")
	quiet.Warn("kept")
	if strings.Contains(buf.String(), "suppressed") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		op, input, want string
	}{
		{"props", "/rec/a.ts", "Props · a.ts"},
		{"props", "", "Props"},
		{"", "/rec/a.ts", "a.ts"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := logging.FormatSubject(tt.op, tt.input); got != tt.want {
			t.Errorf("FormatSubject(%q, %q) = %q, want %q", tt.op, tt.input, got, tt.want)
		}
	}
}

func TestPathAndSecondsAttrs(t *testing.T) {
	if attr := logging.Input("/rec/show.ts"); attr.Key != logging.FieldInput || attr.Value.String() != "/rec/show.ts" {
		t.Fatalf("Input attr = %v", attr)
	}
	if attr := logging.Output("/rec/show"); attr.Key != logging.FieldOutput {
		t.Fatalf("Output attr = %v", attr)
	}
	if got := logging.Seconds("duration", 902.2204).Value.Duration(); got != 902220*time.Millisecond {
		t.Fatalf("Seconds = %v", got)
	}
}
