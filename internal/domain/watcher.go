package domain

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Watcher pairs a compiled matcher with the source extensions it accepts.
// When Pattern has a capture group, the first group is the source path
// relative to the watcher's root and drives mirrored output layout.
type Watcher struct {
	Pattern    *regexp.Regexp
	Extensions []string
}

// NewWatcher compiles expr into a Watcher accepting all source extensions.
func NewWatcher(expr string) (Watcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Watcher{}, fmt.Errorf("compile watch pattern %q: %w", expr, err)
	}
	return Watcher{Pattern: re, Extensions: SourceExtensions()}, nil
}

// MustWatcher is like NewWatcher but panics on an invalid expression.
func MustWatcher(expr string) Watcher {
	w, err := NewWatcher(expr)
	if err != nil {
		panic(err)
	}
	return w
}

// InputWatcher synthesizes the watcher for the input directory shorthand:
// ^<dir>/(.+\.(?:coffee|coffee\.md|litcoffee))$
func InputWatcher(dir string) Watcher {
	const tail = `(.+\.(?:coffee|coffee\.md|litcoffee))$`

	dir = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(dir)), "/")
	expr := "^" + regexp.QuoteMeta(dir) + "/" + tail
	if dir == "." {
		expr = "^" + tail
	}
	return Watcher{Pattern: regexp.MustCompile(expr), Extensions: SourceExtensions()}
}

// Match reports whether p is watched. rel is the first capture group of the
// pattern, or empty when the pattern has none.
func (w Watcher) Match(p string) (rel string, ok bool) {
	if w.Pattern == nil {
		return "", false
	}
	p = filepath.ToSlash(p)
	m := w.Pattern.FindStringSubmatch(p)
	if m == nil {
		return "", false
	}
	if !w.accepts(p) {
		return "", false
	}
	if len(m) > 1 {
		rel = path.Clean(m[1])
	}
	return rel, true
}

func (w Watcher) accepts(p string) bool {
	exts := w.Extensions
	if len(exts) == 0 {
		exts = SourceExtensions()
	}
	for _, ext := range exts {
		if strings.HasSuffix(p, "."+ext) {
			return true
		}
	}
	return false
}

// String returns the pattern source.
func (w Watcher) String() string {
	if w.Pattern == nil {
		return ""
	}
	return w.Pattern.String()
}

// FirstMatch returns the first watcher, in declaration order, matching p.
func FirstMatch(watchers []Watcher, p string) (Watcher, string, bool) {
	for _, w := range watchers {
		if rel, ok := w.Match(p); ok {
			return w, rel, true
		}
	}
	return Watcher{}, "", false
}
