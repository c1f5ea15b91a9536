package guard

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/coffeeguard/internal/domain"
	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
)

type cleanCall struct {
	paths []string
	opts  domain.CleanOptions
}

type fakeInspector struct {
	calls []cleanCall
}

func (f *fakeInspector) Clean(paths []string, opts domain.CleanOptions) []string {
	f.calls = append(f.calls, cleanCall{paths: paths, opts: opts})
	return paths
}

type runCall struct {
	paths    []string
	watchers []domain.Watcher
	opts     domain.Options
}

type fakeRunner struct {
	produced []string
	ok       bool
	runs     []runCall
	removes  []runCall
}

func (f *fakeRunner) Run(_ context.Context, paths []string, watchers []domain.Watcher, opts domain.Options) ([]string, bool) {
	f.runs = append(f.runs, runCall{paths: paths, watchers: watchers, opts: opts})
	return f.produced, f.ok
}

func (f *fakeRunner) Remove(_ context.Context, paths []string, watchers []domain.Watcher, opts domain.Options) {
	f.removes = append(f.removes, runCall{paths: paths, watchers: watchers, opts: opts})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticLister(files ...string) FileLister {
	return func(context.Context) ([]string, error) {
		return files, nil
	}
}

func TestNew_Defaults(t *testing.T) {
	g := New(domain.Overrides{}, &fakeInspector{}, &fakeRunner{}, testLogger())

	assert.Equal(t, domain.DefaultOptions(), g.Options())
	assert.Empty(t, g.Watchers())
	assert.Equal(t, StateIdle, g.State())
}

func TestNew_InputShorthand(t *testing.T) {
	g := New(domain.Overrides{Input: domain.String("app/coffeescripts")}, &fakeInspector{}, &fakeRunner{}, testLogger())

	assert.Equal(t, "app/coffeescripts", g.Options().Output)
	require.Len(t, g.Watchers(), 1)

	rel, ok := g.Watchers()[0].Match("app/coffeescripts/models/user.coffee")
	assert.True(t, ok)
	assert.Equal(t, "models/user.coffee", rel)
}

func TestNew_ExplicitOutputWinsOverInput(t *testing.T) {
	g := New(domain.Overrides{
		Input:  domain.String("src"),
		Output: domain.String("public/js"),
	}, &fakeInspector{}, &fakeRunner{}, testLogger())

	assert.Equal(t, "public/js", g.Options().Output)
	assert.Len(t, g.Watchers(), 1)
}

func TestWatchers_ReturnsCopy(t *testing.T) {
	g := New(domain.Overrides{Watchers: []domain.Watcher{domain.MustWatcher(`^x/(.+)$`)}}, &fakeInspector{}, &fakeRunner{}, testLogger())

	ws := g.Watchers()
	ws[0] = domain.MustWatcher(`^y/(.+)$`)

	assert.Equal(t, `^x/(.+)$`, g.Watchers()[0].String())
}

func TestStart(t *testing.T) {
	t.Run("does nothing without all-on-start", func(t *testing.T) {
		inspector := &fakeInspector{}
		runner := &fakeRunner{ok: true}
		g := New(domain.Overrides{}, inspector, runner, testLogger(),
			WithFileLister(staticLister("a.coffee")))

		require.NoError(t, g.Start(context.Background()))
		assert.Empty(t, inspector.calls)
		assert.Empty(t, runner.runs)
	})

	t.Run("runs everything with all-on-start", func(t *testing.T) {
		inspector := &fakeInspector{}
		runner := &fakeRunner{ok: true}
		g := New(domain.Overrides{
			AllOnStart: domain.Bool(true),
			Watchers:   []domain.Watcher{domain.MustWatcher(`^(.+)$`)},
		}, inspector, runner, testLogger(), WithFileLister(staticLister("a.coffee")))

		require.NoError(t, g.Start(context.Background()))
		require.Len(t, runner.runs, 1)
		assert.Equal(t, []string{"a.coffee"}, runner.runs[0].paths)
	})

	t.Run("propagates batch failure", func(t *testing.T) {
		runner := &fakeRunner{ok: false}
		g := New(domain.Overrides{
			AllOnStart: domain.Bool(true),
			Watchers:   []domain.Watcher{domain.MustWatcher(`^(.+)$`)},
		}, &fakeInspector{}, runner, testLogger(), WithFileLister(staticLister("a.coffee")))

		err := g.Start(context.Background())
		assert.ErrorIs(t, err, domainerrors.ErrTaskFailed)
	})
}

func TestRunAll_FiltersByWatchers(t *testing.T) {
	inspector := &fakeInspector{}
	runner := &fakeRunner{ok: true}
	g := New(domain.Overrides{
		Watchers: []domain.Watcher{domain.MustWatcher(`^x/(.+)$`)},
	}, inspector, runner, testLogger(), WithFileLister(staticLister(
		"a.coffee",
		"x/a.coffee",
		"x/b.coffee",
		"y/c.coffee",
		"x/e.litcoffee",
	)))

	_, err := g.RunAll(context.Background())
	require.NoError(t, err)

	require.Len(t, inspector.calls, 1)
	assert.Equal(t, []string{"x/a.coffee", "x/b.coffee", "x/e.litcoffee"}, inspector.calls[0].paths)
}

func TestRunAll_ListerError(t *testing.T) {
	runner := &fakeRunner{ok: true}
	g := New(domain.Overrides{}, &fakeInspector{}, runner, testLogger(),
		WithFileLister(func(context.Context) ([]string, error) {
			return nil, os.ErrPermission
		}))

	_, err := g.RunAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInternal)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Empty(t, runner.runs)
}

func TestRunOnModifications(t *testing.T) {
	t.Run("cleans then runs with watchers and options", func(t *testing.T) {
		inspector := &fakeInspector{}
		runner := &fakeRunner{produced: []string{"a.js"}, ok: true}
		g := New(domain.Overrides{}, inspector, runner, testLogger())

		produced, err := g.RunOnModifications(context.Background(), []string{"a.coffee"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a.js"}, produced)

		require.Len(t, inspector.calls, 1)
		assert.Equal(t, []string{"a.coffee"}, inspector.calls[0].paths)
		assert.Equal(t, domain.CleanOptions{}, inspector.calls[0].opts)

		require.Len(t, runner.runs, 1)
		assert.Equal(t, []string{"a.coffee"}, runner.runs[0].paths)
		assert.Empty(t, runner.runs[0].watchers)
		assert.Equal(t, domain.DefaultOptions(), runner.runs[0].opts)
	})

	t.Run("failure returns task failed with produced artifacts", func(t *testing.T) {
		runner := &fakeRunner{produced: []string{"ok.js"}, ok: false}
		g := New(domain.Overrides{}, &fakeInspector{}, runner, testLogger())

		produced, err := g.RunOnModifications(context.Background(), []string{"ok.coffee", "bad.coffee"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrTaskFailed)
		assert.Equal(t, []string{"ok.js"}, produced)

		var domainErr *domainerrors.Error
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, []string{"ok.js"}, domainErr.Details)
	})

	t.Run("returns to idle", func(t *testing.T) {
		g := New(domain.Overrides{}, &fakeInspector{}, &fakeRunner{ok: true}, testLogger())

		_, _ = g.RunOnModifications(context.Background(), nil)
		assert.Equal(t, StateIdle, g.State())
	})
}

func TestRunOnRemovals(t *testing.T) {
	inspector := &fakeInspector{}
	runner := &fakeRunner{}
	w := domain.MustWatcher(`^(.+)$`)
	g := New(domain.Overrides{
		Output:   domain.String("public"),
		Watchers: []domain.Watcher{w},
	}, inspector, runner, testLogger())

	g.RunOnRemovals(context.Background(), []string{"a.coffee"})

	require.Len(t, inspector.calls, 1)
	assert.Equal(t, []string{"a.coffee"}, inspector.calls[0].paths)
	assert.True(t, inspector.calls[0].opts.MissingOK)

	require.Len(t, runner.removes, 1)
	assert.Equal(t, []string{"a.coffee"}, runner.removes[0].paths)
	assert.Equal(t, []domain.Watcher{w}, runner.removes[0].watchers)
	assert.Equal(t, "public", runner.removes[0].opts.Output)
	assert.Empty(t, runner.runs)
}

func TestScanSources(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"b.coffee",
		"a.litcoffee",
		"x/c.coffee.md",
		"x/d.js",
		".hidden/e.coffee",
		"x/.f.coffee",
		"notes.txt",
	} {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x = 1\n"), 0o644))
	}

	files, err := ScanSources(context.Background(), root)
	require.NoError(t, err)

	prefix := filepath.ToSlash(root) + "/"
	assert.Equal(t, []string{
		prefix + "a.litcoffee",
		prefix + "b.coffee",
		prefix + "x/c.coffee.md",
	}, files)
}

func TestScanSources_MissingRoot(t *testing.T) {
	_, err := ScanSources(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestScanSources_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ScanSources(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
