// Package storage defines the local key-value area that backs the task
// snapshot and the persisted credential, the local analogue of a browser's
// localStorage.
package storage

import "errors"

// Fixed keys of the local persisted state.
const (
	KeyTasks = "zen_todos"
	KeyToken = "zen_token"
	KeyUser  = "zen_user"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage closed")

// KV is a flat string key-value store. Values are opaque serialized strings.
type KV interface {
	// Get returns the value under key. ok is false if the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value wholesale.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Lock serializes read-modify-write cycles across goroutines and processes.
	// The returned func releases the lock.
	Lock() (unlock func() error, err error)

	Close() error
}
