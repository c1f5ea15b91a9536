// Package di provides dependency injection configuration for coffeeguard.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/coffeeguard/internal/compiler"
	"github.com/listenupapp/coffeeguard/internal/config"
	"github.com/listenupapp/coffeeguard/internal/di/providers"
	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
	"github.com/listenupapp/coffeeguard/internal/guard"
	"github.com/listenupapp/coffeeguard/internal/inspector"
	"github.com/listenupapp/coffeeguard/internal/logger"
	"github.com/listenupapp/coffeeguard/internal/processor"
	"github.com/listenupapp/coffeeguard/internal/runner"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)

	// Pipeline
	do.Provide(injector, providers.ProvideCompiler)
	do.Provide(injector, providers.ProvideInspector)
	do.Provide(injector, providers.ProvideRunner)
	do.Provide(injector, providers.ProvideGuard)

	// Server
	do.Provide(injector, providers.ProvideLiveReload)

	// Workers
	do.Provide(injector, providers.ProvideBatchProcessor)
	do.Provide(injector, providers.ProvideFileWatcher)

	return injector
}

// Bootstrap initializes all services, runs the start hook and begins
// watching. A failed initial compile is logged and does not stop the watcher.
func Bootstrap(injector *do.RootScope) error {
	log := do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*compiler.Coffee](injector)
	_ = do.MustInvoke[*inspector.Inspector](injector)
	_ = do.MustInvoke[*runner.Runner](injector)
	_ = do.MustInvoke[*providers.LiveReloadHandle](injector)
	_ = do.MustInvoke[*processor.BatchProcessor](injector)

	g, err := do.Invoke[*guard.Guard](injector)
	if err != nil {
		return err
	}

	if err := g.Start(context.Background()); err != nil {
		if !domainerrors.Is(err, domainerrors.ErrTaskFailed) {
			return err
		}
		log.Warn("task has failed", "phase", "start")
	}

	_, err = do.Invoke[*providers.FileWatcherHandle](injector)
	return err
}

// RunOnce compiles every watched file a single time without starting the
// watcher. The returned error matches errors.ErrTaskFailed when any file
// failed to compile.
func RunOnce(ctx context.Context, injector *do.RootScope) ([]string, error) {
	g, err := do.Invoke[*guard.Guard](injector)
	if err != nil {
		return nil, err
	}
	return g.RunAll(ctx)
}
