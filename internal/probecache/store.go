package probecache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tsutils/internal/media/ffdiag"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever MediaInfo or the table layout changes.
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Key identifies one probe of one file version.
type Key struct {
	Path    string
	Size    int64
	ModTime time.Time
	Seek    float64
}

// KeyFor stats path and builds its cache key for a probe seeking seek seconds.
func KeyFor(path string, seek float64) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Key{}, err
	}
	return Key{Path: abs, Size: info.Size(), ModTime: info.ModTime(), Seek: seek}, nil
}

func (k Key) seekMS() int64 {
	return int64(math.Round(k.Seek * 1000))
}

// Store manages probe cache persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// SizeOnDisk returns the combined size of the database at path and its WAL
// side files. Missing files count as zero.
func SizeOnDisk(path string) int64 {
	var total int64
	for _, name := range []string{path, path + "-wal", path + "-shm"} {
		if info, err := os.Stat(name); err == nil {
			total += info.Size()
		}
	}
	return total
}

// Get returns the cached MediaInfo for key.
func (s *Store) Get(ctx context.Context, key Key) (ffdiag.MediaInfo, bool, error) {
	var raw string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT info_json FROM media_info WHERE path = ? AND size = ? AND mtime_ns = ? AND seek_ms = ?`,
			key.Path, key.Size, key.ModTime.UnixNano(), key.seekMS(),
		).Scan(&raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return ffdiag.MediaInfo{}, false, nil
	}
	if err != nil {
		return ffdiag.MediaInfo{}, false, fmt.Errorf("query probe cache: %w", err)
	}
	var info ffdiag.MediaInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return ffdiag.MediaInfo{}, false, fmt.Errorf("decode cached media info: %w", err)
	}
	return info, true, nil
}

// Put stores info for key, replacing older entries for the same path.
func (s *Store) Put(ctx context.Context, key Key, info ffdiag.MediaInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode media info: %w", err)
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM media_info WHERE path = ? AND (size != ? OR mtime_ns != ?)`,
			key.Path, key.Size, key.ModTime.UnixNano(),
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO media_info (path, size, mtime_ns, seek_ms, info_json, probed_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			key.Path, key.Size, key.ModTime.UnixNano(), key.seekMS(), string(payload),
			time.Now().UTC().Format(time.RFC3339Nano),
		); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// Purge removes every cached entry and returns how many were deleted.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM media_info`)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("purge probe cache: %w", err)
	}
	return affected, nil
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM media_info`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count probe cache: %w", err)
	}
	return n, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists > 0 {
		var version int
		err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
		if err == nil && version == schemaVersion {
			return nil
		}
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS media_info; DROP TABLE IF EXISTS schema_version;"); err != nil {
			return fmt.Errorf("reset probe cache schema: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
