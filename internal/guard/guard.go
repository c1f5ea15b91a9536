// Package guard coordinates the compile pipeline for one set of watch
// patterns: it owns the resolved options, filters each batch through the
// inspector, hands the survivors to the runner and turns any per-file
// failure into a single batch failure.
package guard

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/listenupapp/coffeeguard/internal/domain"
	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
)

// Inspector filters a raw batch down to its work-set.
type Inspector interface {
	Clean(paths []string, opts domain.CleanOptions) []string
}

// Runner compiles and removes artifacts.
type Runner interface {
	Run(ctx context.Context, paths []string, watchers []domain.Watcher, opts domain.Options) ([]string, bool)
	Remove(ctx context.Context, paths []string, watchers []domain.Watcher, opts domain.Options)
}

// FileLister returns every candidate source file for a full run.
type FileLister func(ctx context.Context) ([]string, error)

// State is the lifecycle state of a Guard.
type State int32

const (
	// StateIdle means no batch is in flight.
	StateIdle State = iota
	// StateProcessing means a batch is being filtered or compiled.
	StateProcessing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Guard is the pipeline controller. Options and watchers are fixed at
// construction; batches must be delivered one at a time by the host.
type Guard struct {
	inspector Inspector
	runner    Runner
	listFiles FileLister
	logger    *slog.Logger
	watchers  []domain.Watcher
	opts      domain.Options
	state     atomic.Int32
}

// Option customizes a Guard.
type Option func(*Guard)

// WithFileLister replaces the lister used by RunAll.
func WithFileLister(fn FileLister) Option {
	return func(g *Guard) {
		g.listFiles = fn
	}
}

// WithRoot makes RunAll scan root instead of the working directory.
func WithRoot(root string) Option {
	return func(g *Guard) {
		g.listFiles = func(ctx context.Context) ([]string, error) {
			return ScanSources(ctx, root)
		}
	}
}

// New merges overrides onto the defaults and returns a Guard in the idle state.
func New(overrides domain.Overrides, inspector Inspector, runner Runner, logger *slog.Logger, options ...Option) *Guard {
	opts, watchers := domain.Merge(overrides)

	g := &Guard{
		inspector: inspector,
		runner:    runner,
		logger:    logger,
		opts:      opts,
		watchers:  watchers,
	}
	WithRoot(".")(g)

	for _, opt := range options {
		opt(g)
	}

	return g
}

// Options returns the resolved options.
func (g *Guard) Options() domain.Options {
	return g.opts
}

// Watchers returns a copy of the watchers in declaration order.
func (g *Guard) Watchers() []domain.Watcher {
	return slices.Clone(g.watchers)
}

// State returns the current lifecycle state.
func (g *Guard) State() State {
	return State(g.state.Load())
}

// Start compiles every watched file when AllOnStart is set and is a no-op
// otherwise.
func (g *Guard) Start(ctx context.Context) error {
	g.logger.Info("guard started",
		"watchers", len(g.watchers),
		"output", g.opts.Output,
		"all_on_start", g.opts.AllOnStart,
	)

	if !g.opts.AllOnStart {
		return nil
	}
	_, err := g.RunAll(ctx)
	return err
}

// RunAll lists every source file, keeps those matched by a watcher in
// listing order, and runs them as one modification batch.
func (g *Guard) RunAll(ctx context.Context) ([]string, error) {
	files, err := g.listFiles(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list source files")
	}

	watched := make([]string, 0, len(files))
	for _, f := range files {
		if _, _, ok := domain.FirstMatch(g.watchers, f); ok {
			watched = append(watched, f)
		}
	}

	g.logger.Debug("running all watched files", "files", len(watched))
	return g.RunOnModifications(ctx, watched)
}

// RunOnModifications compiles a batch of modified paths. It returns the
// produced artifacts and, when any file failed, an error matching
// errors.ErrTaskFailed. Artifacts of files that did compile are kept either way.
func (g *Guard) RunOnModifications(ctx context.Context, paths []string) ([]string, error) {
	g.enter()
	defer g.leave()

	cleaned := g.inspector.Clean(paths, domain.CleanOptions{})
	produced, ok := g.runner.Run(ctx, cleaned, g.watchers, g.opts)
	if !ok {
		return produced, domainerrors.TaskFailed(produced)
	}
	return produced, nil
}

// RunOnRemovals deletes the artifacts of removed sources. Removal has no
// failure signal.
func (g *Guard) RunOnRemovals(ctx context.Context, paths []string) {
	g.enter()
	defer g.leave()

	cleaned := g.inspector.Clean(paths, domain.CleanOptions{MissingOK: true})
	g.runner.Remove(ctx, cleaned, g.watchers, g.opts)
}

func (g *Guard) enter() {
	if !g.state.CompareAndSwap(int32(StateIdle), int32(StateProcessing)) {
		g.logger.Warn("batch delivered while another batch is in flight")
	}
}

func (g *Guard) leave() {
	g.state.Store(int32(StateIdle))
}
