// Package main is the entry point for the tasksync CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tasksync/internal/backend/googletasks"
	"tasksync/internal/backend/rest"
	"tasksync/internal/cli"
	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create service factory
	factory := func(ctx context.Context, env *commands.Env) (service.Service, error) {
		switch env.Cfg.Backend {
		case config.BackendGoogleTasks:
			return googletasks.New(ctx, env.Cfg)
		case config.BackendREST:
			return rest.New(env.Transport()), nil
		}
		return nil, fmt.Errorf("unknown backend %q", env.Cfg.Backend)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
