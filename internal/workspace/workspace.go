package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"tsutils/internal/fileutil"
)

// LockRetryDelay is the polling interval while waiting for a busy directory.
const LockRetryDelay = 200 * time.Millisecond

// Lock is a held output-directory lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// DefaultLockRoot holds lock files when no root is configured.
func DefaultLockRoot() string {
	return filepath.Join(os.TempDir(), "tsutils-locks")
}

// LockPath returns the lock file guarding dir. Lock files live under root
// and are named after the absolute path of dir, so nothing is written beside
// the output itself.
func LockPath(root, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if strings.TrimSpace(root) == "" {
		root = DefaultLockRoot()
	}
	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()
	return filepath.Join(root, name+".lock"), nil
}

// Acquire blocks until the lock guarding dir is held or ctx ends.
func Acquire(ctx context.Context, root, dir string) (*Lock, error) {
	path, err := LockPath(root, dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLockContext(ctx, LockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire lock for %s: lock busy", dir)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Release unlocks the directory. The lock file stays in place: removing it
// would let a waiter holding the old inode and a newcomer both succeed.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Prepare locks dir and recreates it empty. The caller must call Release.
// A non-directory at dir fails with fileutil.ErrNotDirectory.
func Prepare(ctx context.Context, root, dir string) (*Lock, error) {
	lock, err := Acquire(ctx, root, dir)
	if err != nil {
		return nil, err
	}
	if err := fileutil.RecreateDir(dir); err != nil {
		_ = lock.Release()
		return nil, err
	}
	return lock, nil
}

// TempDir creates a uniquely named scratch directory under the system temp
// location. The returned cleanup removes it and is safe to call repeatedly.
func TempDir(prefix string) (string, func(), error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "tsutils"
	}
	dir := filepath.Join(os.TempDir(), prefix+"_"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", func() {}, fmt.Errorf("create temp dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
