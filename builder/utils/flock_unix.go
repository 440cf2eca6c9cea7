//go:build unix

package utils

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// tryLock takes a non-blocking exclusive flock on file
func tryLock(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func unlock(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_UN)
}

// lockHeld reports whether a tryLock error means another holder
func lockHeld(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK)
}
