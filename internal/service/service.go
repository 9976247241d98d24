// Package service defines the backend-agnostic task model and CRUD contract.
package service

import "context"

// Service is the uniform CRUD contract the presentation layer talks to.
// Commands never import a backend directly.
type Service interface {
	// List returns the whole task collection. Never nil on success.
	List(ctx context.Context) ([]Task, error)

	// Create stores a new task and returns the canonical record.
	Create(ctx context.Context, task Task) (Task, error)

	// Update merges patch into the task with the given id.
	// Returns nil if no such task exists.
	Update(ctx context.Context, id string, patch Patch) (*Task, error)

	// Delete removes the task with the given id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
