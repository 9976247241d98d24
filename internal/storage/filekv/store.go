// Package filekv implements storage.KV as one file per key in a directory.
package filekv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"zendo/internal/filelock"
	"zendo/internal/storage"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
	lockName = ".lock"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Store keeps each key in <dir>/<key>. Writes go to a temp file and are
// renamed into place, so readers never observe a partial value.
type Store struct {
	dir    string
	mu     sync.Mutex
	closed bool
}

// Ensure Store implements storage.KV.
var _ storage.KV = (*Store)(nil)

// New creates a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) (string, error) {
	if !validKey.MatchString(key) || key == lockName {
		return "", fmt.Errorf("invalid key: %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get implements storage.KV.
func (s *Store) Get(key string) (string, bool, error) {
	if s.isClosed() {
		return "", false, storage.ErrClosed
	}
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements storage.KV.
func (s *Store) Set(key, value string) error {
	if s.isClosed() {
		return storage.ErrClosed
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, p); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Delete implements storage.KV.
func (s *Store) Delete(key string) error {
	if s.isClosed() {
		return storage.ErrClosed
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Lock implements storage.KV using an advisory lock file in the directory.
func (s *Store) Lock() (func() error, error) {
	if s.isClosed() {
		return nil, storage.ErrClosed
	}
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	l, err := filelock.Acquire(filepath.Join(s.dir, lockName))
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	return l.Release, nil
}

// Close implements storage.KV.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
