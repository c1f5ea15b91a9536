// Package runner compiles and removes artifacts for an inspected batch.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/listenupapp/coffeeguard/internal/domain"
	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
	"github.com/listenupapp/coffeeguard/internal/pathmap"
)

// Compiler turns one source file into the artifact at target.
// It must be safe to call for independent files in any order.
type Compiler interface {
	Compile(ctx context.Context, source, target string, opts domain.Options) error
}

// BatchCompiler is implemented by compilers that can handle a whole batch in
// one invocation. The returned slice holds one entry per item; nil means the
// item compiled.
type BatchCompiler interface {
	Compiler
	CompileBatch(ctx context.Context, items []domain.WorkItem, opts domain.Options) []error
}

// Runner executes compile and remove work. It holds no per-batch state.
type Runner struct {
	compiler Compiler
	logger   *slog.Logger
}

// New creates a Runner backed by compiler.
func New(compiler Compiler, logger *slog.Logger) *Runner {
	return &Runner{
		compiler: compiler,
		logger:   logger,
	}
}

// Run compiles every path that matches a watcher and returns the artifacts
// that were produced, in input order, plus whether every file succeeded.
// A failing file does not stop the rest of the batch. Paths matching no
// watcher are skipped. An empty batch succeeds.
func (r *Runner) Run(ctx context.Context, paths []string, watchers []domain.Watcher, opts domain.Options) ([]string, bool) {
	items := r.resolve(paths, watchers, opts)
	produced := make([]string, 0, len(items))

	if opts.Noop {
		for _, item := range items {
			r.logger.Debug("noop, skipping compiler", "source", item.Source, "artifact", item.Target)
			produced = append(produced, item.Target)
		}
		return produced, true
	}

	errs := r.compile(ctx, items, opts)

	ok := true
	for idx, item := range items {
		if err := errs[idx]; err != nil {
			ok = false
			r.logger.Error("compile failed",
				"source", item.Source,
				"error", err,
			)
			continue
		}

		produced = append(produced, item.Target)
		if !opts.HideSuccess {
			r.logger.Info("compiled",
				"source", item.Source,
				"artifact", item.Target,
			)
		}
	}

	return produced, ok
}

// Remove deletes the artifacts belonging to removed sources. Artifacts that
// are already gone are ignored, and other delete failures are only logged.
func (r *Runner) Remove(ctx context.Context, paths []string, watchers []domain.Watcher, opts domain.Options) {
	for _, item := range r.resolve(paths, watchers, opts) {
		if ctx.Err() != nil {
			r.logger.Warn("removal interrupted", "error", ctx.Err())
			return
		}

		if opts.Noop {
			r.logger.Debug("noop, keeping artifact", "artifact", item.Target)
			continue
		}

		err := os.Remove(item.Target)
		switch {
		case err == nil:
			r.logger.Info("removed artifact",
				"source", item.Source,
				"artifact", item.Target,
			)
		case errors.Is(err, fs.ErrNotExist):
			r.logger.Debug("artifact already absent", "artifact", item.Target)
		default:
			r.logger.Warn("failed to remove artifact",
				"artifact", item.Target,
				"error", err,
			)
		}
	}
}

// resolve pairs each path with the first matching watcher and its target.
func (r *Runner) resolve(paths []string, watchers []domain.Watcher, opts domain.Options) []domain.WorkItem {
	items := make([]domain.WorkItem, 0, len(paths))
	for _, p := range paths {
		item, ok := pathmap.Item(p, watchers, opts)
		if !ok {
			r.logger.Debug("no watcher matches path", "path", p)
			continue
		}
		items = append(items, item)
	}
	return items
}

// compile returns one error slot per item.
func (r *Runner) compile(ctx context.Context, items []domain.WorkItem, opts domain.Options) []error {
	errs := make([]error, len(items))
	if len(items) == 0 {
		return errs
	}

	if bc, ok := r.compiler.(BatchCompiler); ok {
		got := bc.CompileBatch(ctx, items, opts)
		for idx := range items {
			if idx < len(got) {
				errs[idx] = got[idx]
				continue
			}
			errs[idx] = domainerrors.CompileFailed(items[idx].Source,
				fmt.Errorf("batch compiler returned %d results for %d files", len(got), len(items)))
		}
		return errs
	}

	for idx, item := range items {
		errs[idx] = r.compileOne(ctx, item, opts)
	}
	return errs
}

// compileOne invokes the compiler for a single item, turning a panic into
// a compile failure for that file.
func (r *Runner) compileOne(ctx context.Context, item domain.WorkItem, opts domain.Options) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = domainerrors.CompileFailed(item.Source, fmt.Errorf("compiler panic: %v", rec))
		}
	}()
	return r.compiler.Compile(ctx, item.Source, item.Target, opts)
}
