package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// Transcript loads a captured ffmpeg stderr transcript from the shared
// ffdiag testdata directory and splits it into lines.
func Transcript(t testing.TB, name string) []string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("locate testsupport package")
	}
	path := filepath.Join(filepath.Dir(file), "..", "media", "ffdiag", "testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript %s: %v", name, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}
