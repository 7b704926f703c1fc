package storage

import (
	"context"
	"fmt"
	"os"
	"time"
)

const lockPollInterval = 10 * time.Millisecond

// FileLock provides advisory file locking for cross-process synchronization.
// The lock file lives at path + ".lock".
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a file lock. The lock is not acquired until Lock is called.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path + ".lock"}
}

// Path returns the lock file path.
func (l *FileLock) Path() string { return l.path }

// Lock acquires an exclusive lock, polling until ctx is done.
// Returns an error matching ErrLockTimeout if ctx expires first.
func (l *FileLock) Lock(ctx context.Context) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return &StorageError{Op: "lock", Path: l.path, Err: err}
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		if err := tryLock(f); err == nil {
			l.file = f
			return nil
		}
		select {
		case <-ctx.Done():
			f.Close()
			return &StorageError{Op: "lock", Path: l.path, Err: fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())}
		case <-ticker.C:
		}
	}
}

// Unlock releases the lock. Calling Unlock on an unheld lock is a no-op.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	unlock(l.file)
	err := l.file.Close()
	l.file = nil
	return err
}
