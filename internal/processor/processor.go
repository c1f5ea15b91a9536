package processor

import (
	"context"
	"log/slog"
	"sync"

	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
	"github.com/listenupapp/coffeeguard/internal/id"
	"github.com/listenupapp/coffeeguard/internal/livereload"
	"github.com/listenupapp/coffeeguard/internal/watcher"
)

// Guard is the pipeline controller driven by the processor.
type Guard interface {
	RunOnModifications(ctx context.Context, paths []string) ([]string, error)
	RunOnRemovals(ctx context.Context, paths []string)
}

// BatchProcessor delivers watcher batches to the guard one at a time.
//
// Removals run before modifications so that a file deleted and recreated
// within one batch window ends up compiled. A failed batch is reported and
// logged; it never stops the processor.
type BatchProcessor struct {
	guard   Guard
	emitter livereload.Emitter
	logger  *slog.Logger

	// mu serializes batches; the guard does not allow overlap.
	mu sync.Mutex
}

// NewBatchProcessor creates a new BatchProcessor. A nil emitter disables
// live-reload notifications.
func NewBatchProcessor(guard Guard, emitter livereload.Emitter, logger *slog.Logger) *BatchProcessor {
	if emitter == nil {
		emitter = livereload.NewNoopEmitter()
	}
	return &BatchProcessor{
		guard:   guard,
		emitter: emitter,
		logger:  logger,
	}
}

// Process handles one batch and returns the guard's modification error, if
// any. Failures matching errors.ErrTaskFailed have already been logged.
func (bp *BatchProcessor) Process(ctx context.Context, batch watcher.Batch) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	batchID := id.Batch()
	logger := bp.logger.With("batch", batchID)

	removed, removedArtifacts, removedIgnored := sourcesOnly(batch.Removed)
	modified, modifiedArtifacts, modifiedIgnored := sourcesOnly(batch.Modified)

	logger.Debug("processing batch",
		"modified", len(modified),
		"removed", len(removed),
		"artifacts_skipped", removedArtifacts+modifiedArtifacts,
		"ignored", removedIgnored+modifiedIgnored,
	)

	if len(removed) > 0 {
		bp.guard.RunOnRemovals(ctx, removed)
		for _, source := range removed {
			bp.emitter.Emit(livereload.NewArtifactRemovedEvent(batchID, source))
		}
	}

	if len(modified) == 0 {
		return nil
	}

	produced, err := bp.guard.RunOnModifications(ctx, modified)
	for _, artifact := range produced {
		bp.emitter.Emit(livereload.NewArtifactCompiledEvent(batchID, artifact))
	}

	switch {
	case err == nil:
		return nil
	case domainerrors.Is(err, domainerrors.ErrTaskFailed):
		logger.Warn("task has failed", "produced", len(produced), "sources", len(modified))
		bp.emitter.Emit(livereload.NewBatchFailedEvent(batchID, produced))
		return err
	default:
		logger.Error("batch processing failed", "error", err)
		return err
	}
}

// Run processes batches until ctx is canceled.
func (bp *BatchProcessor) Run(ctx context.Context, batches <-chan watcher.Batch) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-batches:
			if batch.Empty() {
				continue
			}
			// Errors are reported inside Process; keep watching.
			_ = bp.Process(ctx, batch) //nolint:errcheck // logged in Process
		}
	}
}
