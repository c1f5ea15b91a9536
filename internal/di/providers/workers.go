package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/coffeeguard/internal/config"
	"github.com/listenupapp/coffeeguard/internal/guard"
	"github.com/listenupapp/coffeeguard/internal/logger"
	"github.com/listenupapp/coffeeguard/internal/processor"
	"github.com/listenupapp/coffeeguard/internal/watcher"
)

// ProvideBatchProcessor provides the processor that feeds batches to the guard.
func ProvideBatchProcessor(i do.Injector) (*processor.BatchProcessor, error) {
	g := do.MustInvoke[*guard.Guard](i)
	liveReload := do.MustInvoke[*LiveReloadHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return processor.NewBatchProcessor(g, liveReload.Emitter(), log.Logger), nil
}

// FileWatcherHandle wraps the file watcher with shutdown capability.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideFileWatcher provides the file system watcher and starts feeding
// its batches to the processor.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	batchProcessor := do.MustInvoke[*processor.BatchProcessor](i)

	w, err := watcher.New(log.Logger, watcher.Options{
		IgnorePatterns: watcher.DefaultIgnorePatterns(),
		SettleDelay:    cfg.Watcher.SettleDelay,
		IgnoreHidden:   cfg.Watcher.IgnoreHidden,
	})
	if err != nil {
		return nil, err
	}

	if err := w.Watch(cfg.Watcher.Root); err != nil {
		_ = w.Stop()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("file watcher error", "error", err)
		}
	}()

	go batchProcessor.Run(ctx, w.Batches())

	go func() {
		for {
			select {
			case err := <-w.Errors():
				log.Warn("file watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("watching for changes", "root", cfg.Watcher.Root, "settle_delay", cfg.Watcher.SettleDelay)

	return &FileWatcherHandle{
		Watcher: w,
		cancel:  cancel,
	}, nil
}
