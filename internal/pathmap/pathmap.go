// Package pathmap maps watched source files to the artifact paths they
// compile to.
package pathmap

import (
	"path"
	"path/filepath"

	"github.com/listenupapp/coffeeguard/internal/domain"
)

// Target returns the artifact path for source, matched by w.
//
// Layout rules:
//   - Shallow: Output/<name>.js, sub-directories are dropped. Collisions
//     between equally named files in different directories are not detected.
//   - Mirrored: Output/<dir of capture>/<name>.js, where the capture is the
//     watcher's first group (the path under the watcher's root).
//   - A watcher without a capture group writes to Output directly.
//
// When Output is empty the artifact is written next to its source.
// The extension is always rewritten to .js.
func Target(source string, w domain.Watcher, opts domain.Options) string {
	slashed := filepath.ToSlash(source)
	name := domain.TargetName(path.Base(slashed))
	outDir := outputDir(slashed, opts)

	if opts.Shallow {
		return filepath.Join(outDir, name)
	}

	rel, ok := w.Match(slashed)
	if !ok || rel == "" || opts.Output == "" {
		return filepath.Join(outDir, name)
	}

	return filepath.Join(outDir, filepath.FromSlash(path.Dir(rel)), name)
}

// Relative strips the output directory from target, giving the artifact's
// path under Output. It is the inverse of Target for mirrored layouts.
func Relative(target string, opts domain.Options) (string, error) {
	base := opts.Output
	if base == "" {
		base = "."
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Item resolves source against the first matching watcher and returns the
// work item for it. ok is false when no watcher matches.
func Item(source string, watchers []domain.Watcher, opts domain.Options) (domain.WorkItem, bool) {
	w, _, ok := domain.FirstMatch(watchers, source)
	if !ok {
		return domain.WorkItem{}, false
	}
	return domain.WorkItem{
		Source:  source,
		Target:  Target(source, w, opts),
		Watcher: w,
	}, true
}

func outputDir(source string, opts domain.Options) string {
	if opts.Output != "" {
		return filepath.FromSlash(opts.Output)
	}
	return filepath.FromSlash(path.Dir(source))
}
