// Package snapshot keeps the whole local task collection as one serialized
// value under a fixed key. It is never patched incrementally: every mutation
// reads the collection, changes it in memory and writes it back wholesale.
package snapshot

import (
	"encoding/json"
	"fmt"
	"sync"

	"zendo/internal/service"
	"zendo/internal/storage"
)

// Store is the local fallback snapshot of the task collection.
type Store struct {
	kv  storage.KV
	key string
	mu  sync.Mutex
}

// New creates a snapshot store on kv under storage.KeyTasks.
func New(kv storage.KV) *Store {
	return &Store{kv: kv, key: storage.KeyTasks}
}

// Load returns the current collection. An absent or empty snapshot is an
// empty collection, never an error.
func (s *Store) Load() ([]service.Task, error) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return decode(raw, ok)
}

// Save overwrites the whole collection.
func (s *Store) Save(tasks []service.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.kv.Lock()
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	return s.write(tasks)
}

// Mutate runs a read-modify-write cycle under an exclusive lock and returns
// the collection as written. If fn returns an error nothing is written.
//
// Serializing here means two concurrent fallback writers cannot silently
// discard each other's change.
func (s *Store) Mutate(fn func([]service.Task) ([]service.Task, error)) ([]service.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.kv.Lock()
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock() }()

	current, err := s.Load()
	if err != nil {
		return nil, err
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []service.Task{}
	}

	if err := s.write(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) write(tasks []service.Task) error {
	if tasks == nil {
		tasks = []service.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func decode(raw string, ok bool) ([]service.Task, error) {
	if !ok || raw == "" {
		return []service.Task{}, nil
	}
	var tasks []service.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}
