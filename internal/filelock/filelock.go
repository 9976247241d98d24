// Package filelock serializes access to the local data store across zendo
// processes with an advisory lock file kept next to it.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// Lock is a held exclusive lock. Release may be called more than once.
type Lock struct {
	f    *os.File
	once sync.Once
	err  error
}

// Acquire blocks until the exclusive lock on path is held. The lock file is
// created when missing and left in place after release.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &Lock{f: f}, nil
}

// Release drops the lock and closes the file.
func (l *Lock) Release() error {
	l.once.Do(func() {
		l.err = errors.Join(unlockFile(l.f), l.f.Close())
	})
	return l.err
}
