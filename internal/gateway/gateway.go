// Package gateway implements the task store gateway: every CRUD operation
// tries the remote service first and transparently falls back to the local
// snapshot when the remote attempt fails.
//
// Per call the flow is:
//
//	REMOTE_ATTEMPT -> SUCCESS                     return remote result
//	               -> AUTH_REJECTED (401)         clear credential, ask for re-auth, FALLBACK
//	               -> any other failure           FALLBACK
//	FALLBACK       -> read or mutate snapshot     return local result
//
// The remote attempt is never retried within a call, and a successful remote
// call never touches the snapshot (unless RefreshCacheOnRead is set).
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"zendo/internal/remote"
	"zendo/internal/service"
	"zendo/internal/snapshot"
)

// Remote is the authoritative task service. Implementations return a
// *remote.Failure for every failed call.
type Remote interface {
	List(ctx context.Context) ([]service.Task, error)
	Create(ctx context.Context, task service.Task) (service.Task, error)
	Update(ctx context.Context, id string, patch service.Patch) (*service.Task, error)
	Delete(ctx context.Context, id string) error
}

// Credentials is the part of the identity provider the gateway needs.
type Credentials interface {
	ClearCredential() error
}

// Navigator sends the user to the re-authentication entry point.
type Navigator interface {
	ReauthRequired()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

// ReauthRequired implements Navigator.
func (f NavigatorFunc) ReauthRequired() { f() }

// Options tunes gateway behaviour.
type Options struct {
	// RefreshCacheOnRead overwrites the snapshot with every successful remote
	// List. Off by default: the two stores are independent.
	RefreshCacheOnRead bool
}

// Gateway implements service.Service over a remote service and a local snapshot.
type Gateway struct {
	remote Remote
	local  *snapshot.Store
	creds  Credentials
	nav    Navigator
	log    *slog.Logger
	opts   Options
}

// Ensure Gateway implements service.Service.
var _ service.Service = (*Gateway)(nil)

// New creates a gateway. creds, nav and log may be nil.
func New(r Remote, local *snapshot.Store, creds Credentials, nav Navigator, log *slog.Logger, opts Options) *Gateway {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Gateway{
		remote: r,
		local:  local,
		creds:  creds,
		nav:    nav,
		log:    log,
		opts:   opts,
	}
}

// List returns the remote collection, or the local snapshot if the remote
// attempt fails. An absent snapshot yields an empty collection. A snapshot
// that cannot be parsed is returned as an error and left on disk as is.
func (g *Gateway) List(ctx context.Context) ([]service.Task, error) {
	tasks, err := g.remote.List(ctx)
	if err == nil {
		if tasks == nil {
			tasks = []service.Task{}
		}
		if g.opts.RefreshCacheOnRead {
			if err := g.local.Save(tasks); err != nil {
				g.log.Warn("failed to refresh local snapshot", "error", err)
			}
		}
		return tasks, nil
	}

	g.failed(ctx, "list", err)
	return g.local.Load()
}

// Create submits task remotely and returns the server's canonical record. On
// failure it appends task to the snapshot and returns it unchanged.
func (g *Gateway) Create(ctx context.Context, task service.Task) (service.Task, error) {
	created, err := g.remote.Create(ctx, task)
	if err == nil {
		return created, nil
	}

	g.failed(ctx, "create", err)
	_, err = g.local.Mutate(func(tasks []service.Task) ([]service.Task, error) {
		return append(tasks, task.Clone()), nil
	})
	if err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Update merges patch into the record with the given id. A remote not-found
// returns nil without touching the snapshot. On any other failure the patch
// is merged into the snapshot; a missing id there also yields nil.
func (g *Gateway) Update(ctx context.Context, id string, patch service.Patch) (*service.Task, error) {
	updated, err := g.remote.Update(ctx, id, patch)
	if err == nil {
		return updated, nil
	}
	if remote.ReasonOf(err) == remote.NotFound {
		g.log.Debug("remote reports task missing", "op", "update", "id", id)
		return nil, nil
	}

	g.failed(ctx, "update", err)
	var merged *service.Task
	_, err = g.local.Mutate(func(tasks []service.Task) ([]service.Task, error) {
		i := slices.IndexFunc(tasks, func(t service.Task) bool { return t.ID == id })
		if i < 0 {
			return tasks, nil
		}
		tasks[i] = patch.Apply(tasks[i])
		t := tasks[i].Clone()
		merged = &t
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Delete removes the record with the given id. A remote not-found counts as
// deleted. On any other failure every matching record is removed from the
// snapshot; a missing id leaves it unchanged.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	err := g.remote.Delete(ctx, id)
	if err == nil {
		return nil
	}
	if remote.ReasonOf(err) == remote.NotFound {
		g.log.Debug("remote reports task missing", "op", "delete", "id", id)
		return nil
	}

	g.failed(ctx, "delete", err)
	_, err = g.local.Mutate(func(tasks []service.Task) ([]service.Task, error) {
		return slices.DeleteFunc(tasks, func(t service.Task) bool { return t.ID == id }), nil
	})
	return err
}

// failed handles a remote failure before the fallback path runs. An
// authentication rejection clears the credential and asks for re-auth;
// fallback proceeds regardless.
func (g *Gateway) failed(ctx context.Context, op string, err error) {
	f := remote.Classify(err)

	if f.Reason == remote.Unauthorized {
		g.log.InfoContext(ctx, "remote rejected credential", "op", op)
		if g.creds != nil {
			if cerr := g.creds.ClearCredential(); cerr != nil {
				g.log.Warn("failed to clear credential", "error", cerr)
			}
		}
		if g.nav != nil {
			g.nav.ReauthRequired()
		}
	}

	attrs := []any{"op", op, "reason", f.Reason.String()}
	if f.Status != 0 {
		attrs = append(attrs, "status", f.Status)
	}
	if f.Err != nil && !errors.Is(f.Err, context.Canceled) {
		attrs = append(attrs, "error", f.Err)
	}
	g.log.WarnContext(ctx, "remote unavailable, using local snapshot", attrs...)
}
