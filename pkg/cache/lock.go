// Package cache owns the on-disk store of cloned hook repositories
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// LockFileName is the file every hookrun process flocks before touching the cache
const LockFileName = ".lock"

// lockPollInterval is how often a waiting Lock retries
const lockPollInterval = 50 * time.Millisecond

// FileLock is an advisory flock on the cache directory
type FileLock struct {
	file     *os.File
	lockPath string
}

// NewFileLock creates a lock for the given cache directory
func NewFileLock(cacheDir string) *FileLock {
	return &FileLock{lockPath: filepath.Join(cacheDir, LockFileName)}
}

// Lock acquires the lock, giving up when ctx is done. Waiting polls a
// non-blocking flock so no syscall outlives the file on cancellation.
func (fl *FileLock) Lock(ctx context.Context) error {
	file, err := os.OpenFile(fl.lockPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	fl.file = file

	err = tryFlock(file)
	if err == nil {
		return nil
	}

	log.Infof("waiting for cache lock %s", fl.lockPath)
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for errors.Is(err, syscall.EWOULDBLOCK) {
		select {
		case <-ctx.Done():
			fl.release()
			return ctx.Err()
		case <-ticker.C:
		}
		err = tryFlock(file)
	}

	if err != nil {
		fl.release()
		return fmt.Errorf("failed to acquire file lock: %w", err)
	}
	return nil
}

// tryFlock takes an exclusive flock on file without blocking
func tryFlock(file *os.File) error {
	conn, err := file.SyscallConn()
	if err != nil {
		return err
	}
	var lockErr error
	if err := conn.Control(func(fd uintptr) {
		lockErr = syscall.Flock(int(fd), syscall.LOCK_EX|syscall.LOCK_NB)
	}); err != nil {
		return err
	}
	return lockErr
}

// Unlock releases the lock
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN)
	if closeErr := fl.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	fl.file = nil
	return err
}

// WithLock runs fn while holding the lock
func (fl *FileLock) WithLock(ctx context.Context, fn func() error) error {
	if err := fl.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			log.Warnf("failed to unlock %s: %v", fl.lockPath, err)
		}
	}()

	return fn()
}

func (fl *FileLock) release() {
	_ = fl.file.Close() //nolint:errcheck // the lock error is more important
	fl.file = nil
}
