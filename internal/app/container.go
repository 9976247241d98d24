// Package app wires the task store, session, backend and advisor from
// configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"zendo/internal/advisor"
	"zendo/internal/backend/googletasks"
	"zendo/internal/backend/httpapi"
	"zendo/internal/commands"
	"zendo/internal/config"
	"zendo/internal/exitcode"
	"zendo/internal/gateway"
	"zendo/internal/logging"
	"zendo/internal/session"
	"zendo/internal/snapshot"
	"zendo/internal/storage"
	"zendo/internal/storage/filekv"
	"zendo/internal/storage/sqlitekv"
)

// Container holds the constructed collaborators for one process.
type Container struct {
	KV       storage.KV
	Session  *session.Session
	Snapshot *snapshot.Store
	Remote   gateway.Remote
	Gateway  *gateway.Gateway
	Advisor  *advisor.Advisor
	Logger   *slog.Logger

	// Auth is set for the http backend only.
	Auth *httpapi.Client
}

// New builds a Container. Logs go to logOut. nav is told when the remote
// rejects the credential.
func New(ctx context.Context, cfg *config.Config, nav gateway.Navigator, logOut io.Writer) (*Container, error) {
	s := cfg.Settings
	logger := logging.New(logOut, s.LogLevel, cfg.Debug)

	kv, err := openKV(cfg)
	if err != nil {
		return nil, exitcode.Wrap(exitcode.BackendError, err)
	}

	sess := session.New(kv)
	if err := sess.Load(); err != nil {
		_ = kv.Close()
		return nil, exitcode.Wrap(exitcode.BackendError, err)
	}

	c := &Container{
		KV:       kv,
		Session:  sess,
		Snapshot: snapshot.New(kv),
		Logger:   logger,
	}

	switch s.Backend {
	case config.BackendGoogleTasks:
		gt, err := googletasks.New(ctx, cfg, sess)
		if err != nil {
			_ = kv.Close()
			return nil, exitcode.Wrap(exitcode.AuthError, err)
		}
		c.Remote = gt
	default:
		client := httpapi.New(s.APIURL, sess, httpapi.WithTimeout(s.Timeout))
		c.Remote = client
		c.Auth = client
	}

	c.Gateway = gateway.New(c.Remote, c.Snapshot, sess, nav, logger.With("component", "gateway"), gateway.Options{
		RefreshCacheOnRead: s.RefreshCacheOnRead,
	})

	adv, err := advisor.New(ctx, s.Advisor, logger.With("component", "advisor"))
	if err != nil {
		// The advisor is optional; run without it.
		logger.Warn("advisor unavailable", "error", err)
		adv = &advisor.Advisor{}
	}
	c.Advisor = adv

	logger.Debug("container ready", "backend", s.Backend, "storage", s.Storage, "dir", cfg.Dir)
	return c, nil
}

// Env exposes the container to commands.
func (c *Container) Env() *commands.Env {
	env := &commands.Env{
		Tasks:   c.Gateway,
		Session: c.Session,
		Advisor: c.Advisor,
	}
	if c.Auth != nil {
		env.Auth = c.Auth
	}
	return env
}

// Close releases the key-value store.
func (c *Container) Close() error {
	if c.KV == nil {
		return nil
	}
	return c.KV.Close()
}

func openKV(cfg *config.Config) (storage.KV, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	switch cfg.Settings.Storage {
	case config.StorageSQLite:
		kv, err := sqlitekv.Open(cfg.DBPath())
		if err != nil {
			return nil, err
		}
		return kv, nil
	case config.StorageFile, "":
		return filekv.New(cfg.DataPath()), nil
	default:
		return nil, errors.New("unknown storage: " + cfg.Settings.Storage)
	}
}
