package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLocked is returned when another process holds the cache lock.
var ErrLocked = errors.New("cache directory is locked by another process")

// FileLock is an exclusive lock on a cache root, held until Release
type FileLock struct {
	file *os.File
	path string
}

// AcquireCacheLock takes an exclusive, non-blocking lock on the cache root so
// two runs never write the same cache directory at once.
func AcquireCacheLock(cacheDir string) (*FileLock, error) {
	lockPath := filepath.Join(cacheDir, ".imgcorpus.lock")

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := tryLock(file); err != nil {
		_ = file.Close()
		if lockHeld(err) {
			return nil, fmt.Errorf("%w (lock file: %s)", ErrLocked, lockPath)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", lockPath, err)
	}

	// Write PID for debugging
	pid := fmt.Sprintf("%d\n%s", os.Getpid(), time.Now().Format(time.RFC3339))
	_, _ = file.WriteAt([]byte(pid), 0)

	return &FileLock{file: file, path: lockPath}, nil
}

// Release unlocks and removes the lock file. It is safe on a nil lock.
func (fl *FileLock) Release() error {
	if fl == nil || fl.file == nil {
		return nil
	}

	_ = unlock(fl.file)
	err := fl.file.Close()
	fl.file = nil

	_ = os.Remove(fl.path)
	return err
}
