package workspace

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tsutils/internal/logging"
)

// FrameScratchPrefix names the bitmap scratch directories frame property
// extraction creates with TempDir.
const FrameScratchPrefix = "tsutils_frames"

// CleanResult lists what CleanStale removed and what it could not.
type CleanResult struct {
	Removed []string
	Bytes   int64
	Errors  []CleanupError
}

// CleanupError pairs a directory with the reason it was kept.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes scratch directories named "<prefix>_*" under root whose
// modification time is older than maxAge. They are left behind when a run is
// killed before its deferred cleanup executes.
func CleanStale(ctx context.Context, root, prefix string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	var result CleanResult

	root = strings.TrimSpace(root)
	prefix = strings.TrimSpace(prefix)
	if root == "" || prefix == "" {
		return result
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix+"_") {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		size := dirSize(dir)
		if err := os.RemoveAll(dir); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale scratch directory", "scratch_cleanup_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the temp directory"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir)
		result.Bytes += size
		if logger != nil {
			logger.Info("removed stale scratch directory",
				logging.String("path", dir),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.Int64("bytes", size),
				logging.String(logging.FieldEventType, "scratch_cleanup"),
			)
		}
	}
	return result
}

func dirSize(dir string) int64 {
	var size int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
