// Package main is the entry point for the zendo CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"zendo/internal/app"
	"zendo/internal/cli"
	"zendo/internal/commands"
	"zendo/internal/config"
	"zendo/internal/gateway"
)

func main() {
	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	factory := func(ctx context.Context, cfg *config.Config, nav gateway.Navigator) (*commands.Env, func(), error) {
		c, err := app.New(ctx, cfg, nav, os.Stderr)
		if err != nil {
			return nil, nil, err
		}
		return c.Env(), func() { _ = c.Close() }, nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
