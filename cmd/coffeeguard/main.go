// Package main provides the entry point for coffeeguard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/listenupapp/coffeeguard/internal/config"
	"github.com/listenupapp/coffeeguard/internal/di"
	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
	"github.com/listenupapp/coffeeguard/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// Create DI container
	injector := di.NewContainer(cfg)

	if cfg.App.Once {
		os.Exit(runOnce(injector))
	}

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start coffeeguard: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")

	// The DI container shuts services down in reverse order.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("See you space cowboy...")
}

// runOnce compiles every watched file and returns the process exit code.
func runOnce(injector *do.RootScope) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() { _ = injector.Shutdown() }()

	produced, err := di.RunOnce(ctx, injector)
	log, logErr := do.Invoke[*logger.Logger](injector)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "Failed to start coffeeguard: %v\n", logErr)
		return 1
	}

	switch {
	case domainerrors.Is(err, domainerrors.ErrTaskFailed):
		log.Warn("task has failed", "produced", len(produced))
		return 1
	case err != nil:
		log.Error("run failed", "error", err)
		return 1
	}

	log.Info("compiled all watched files", "produced", len(produced))
	return 0
}
