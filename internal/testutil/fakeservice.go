// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"slices"
	"sync"

	"zendo/internal/remote"
	"zendo/internal/service"
)

// FakeService is an in-memory task collection implementing service.Service
// (and therefore gateway.Remote) with per-method error injection.
type FakeService struct {
	mu    sync.RWMutex
	tasks []service.Task
	calls map[string]int

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// MissingErr is returned by Update and Delete for unknown ids. When nil,
	// Update returns (nil, nil) and Delete succeeds, per service.Service.
	MissingErr error

	// CreateID, when set, replaces the id of created tasks to mimic a
	// server that canonicalizes records.
	CreateID func(service.Task) string
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{calls: make(map[string]int)}
}

// NewFakeRemote creates a FakeService that reports unknown ids the way a
// remote service does: as a NotFound failure.
func NewFakeRemote() *FakeService {
	f := NewFakeService()
	f.MissingErr = &remote.Failure{Reason: remote.NotFound, Status: 404}
	return f
}

// AddTask appends a task to the collection.
func (f *FakeService) AddTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t.Clone())
}

// Tasks returns a copy of the collection.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	for i, t := range f.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Calls returns how many times the named method ran.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

// FailAll makes every method return err.
func (f *FakeService) FailAll(err error) {
	f.ListErr, f.CreateErr, f.UpdateErr, f.DeleteErr = err, err, err, err
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

// List implements service.Service.
func (f *FakeService) List(ctx context.Context) ([]service.Task, error) {
	f.record("List")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Tasks(), nil
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, task service.Task) (service.Task, error) {
	f.record("Create")
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	created := task.Clone()
	if f.CreateID != nil {
		created.ID = f.CreateID(task)
	}
	f.tasks = append(f.tasks, created)
	return created.Clone(), nil
}

// Update implements service.Service.
func (f *FakeService) Update(ctx context.Context, id string, patch service.Patch) (*service.Task, error) {
	f.record("Update")
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := slices.IndexFunc(f.tasks, func(t service.Task) bool { return t.ID == id })
	if i < 0 {
		return nil, f.MissingErr
	}
	f.tasks[i] = patch.Apply(f.tasks[i])
	t := f.tasks[i].Clone()
	return &t, nil
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id string) error {
	f.record("Delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.tasks)
	f.tasks = slices.DeleteFunc(f.tasks, func(t service.Task) bool { return t.ID == id })
	if len(f.tasks) == n {
		return f.MissingErr
	}
	return nil
}
