package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"zendo/internal/exitcode"
	"zendo/internal/service"
)

var (
	errOutOfRange   = errors.New("task number out of range")
	errTaskNotFound = errors.New("task not found")
)

// findTask resolves ref against the current collection.
func findTask(ctx context.Context, svc service.Service, ref TaskRef) (service.Task, error) {
	tasks, err := svc.List(ctx)
	if err != nil {
		return service.Task{}, err
	}
	if ref.ID != "" {
		i := slices.IndexFunc(tasks, func(t service.Task) bool { return t.ID == ref.ID })
		if i < 0 {
			return service.Task{}, fmt.Errorf("%w: %s", errTaskNotFound, ref.ID)
		}
		return tasks[i], nil
	}
	if ref.Num < 1 || ref.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("%w: %d", errOutOfRange, ref.Num)
	}
	return tasks[ref.Num-1], nil
}

// resolveTaskArg parses args as a task reference and resolves it, reporting
// failures on errOut. ok is false when the command should exit with code.
func resolveTaskArg(ctx context.Context, svc service.Service, args []string, errOut io.Writer) (task service.Task, code int, ok bool) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError, false
	}

	task, err = findTask(ctx, svc, ref)
	if err != nil {
		return service.Task{}, reportError(errOut, err), false
	}
	return task, exitcode.Success, true
}

// reportError prints err and returns its exit code. Lookup failures are user
// errors; anything else reached the local storage layer and failed there.
func reportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, errOutOfRange), errors.Is(err, errTaskNotFound):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: local storage error: %v\n", err)
		return exitcode.BackendError
	}
}
