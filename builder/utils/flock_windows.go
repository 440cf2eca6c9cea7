//go:build windows

package utils

import (
	"errors"
	"math"
	"os"

	"golang.org/x/sys/windows"
)

// tryLock locks the whole file exclusively, failing at once if it is held
func tryLock(file *os.File) error {
	var ol windows.Overlapped
	return windows.LockFileEx(
		windows.Handle(file.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, math.MaxUint32, math.MaxUint32, &ol,
	)
}

func unlock(file *os.File) error {
	var ol windows.Overlapped
	return windows.UnlockFileEx(windows.Handle(file.Fd()), 0, math.MaxUint32, math.MaxUint32, &ol)
}

// lockHeld reports whether a tryLock error means another holder
func lockHeld(err error) bool {
	return errors.Is(err, windows.ERROR_LOCK_VIOLATION)
}
