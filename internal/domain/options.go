package domain

// Options is the resolved guard configuration. It is produced once by Merge
// and is read-only afterwards.
type Options struct {
	// Output is the directory artifacts are written to. Empty means "next to
	// the source" for watchers without a capture group.
	Output string `json:"output"`

	Bare        bool `json:"bare"`         // compile without the top-level function wrapper
	Shallow     bool `json:"shallow"`      // flatten output, ignore source sub-directories
	HideSuccess bool `json:"hide_success"` // suppress the per-file success notice
	Noop        bool `json:"noop"`         // map paths but never invoke the compiler
	AllOnStart  bool `json:"all_on_start"` // compile every watched file on Start
	SourceMap   bool `json:"source_map"`   // embed a source map in each artifact
}

// DefaultOptions returns the documented defaults. Every flag is off and no
// output directory is set.
func DefaultOptions() Options {
	return Options{}
}

// Overrides carries user supplied settings. A nil field means "not given"
// and takes the default during Merge.
type Overrides struct {
	// Input is a shorthand that synthesizes one watcher for every source
	// file under the directory and, when Output is absent, sets Output to
	// the same directory.
	Input  *string
	Output *string

	Bare        *bool
	Shallow     *bool
	HideSuccess *bool
	Noop        *bool
	AllOnStart  *bool
	SourceMap   *bool

	// Watchers are explicit patterns, kept in declaration order.
	Watchers []Watcher
}

// Merge applies overrides onto the defaults field by field and returns the
// resolved options together with the ordered watcher list. The synthesized
// input watcher, if any, is appended after the explicit ones.
func Merge(o Overrides) (Options, []Watcher) {
	opts := DefaultOptions()

	watchers := make([]Watcher, 0, len(o.Watchers)+1)
	watchers = append(watchers, o.Watchers...)

	if o.Input != nil && *o.Input != "" {
		opts.Output = *o.Input
		watchers = append(watchers, InputWatcher(*o.Input))
	}

	if o.Output != nil {
		opts.Output = *o.Output
	}
	opts.Bare = valueOr(o.Bare, opts.Bare)
	opts.Shallow = valueOr(o.Shallow, opts.Shallow)
	opts.HideSuccess = valueOr(o.HideSuccess, opts.HideSuccess)
	opts.Noop = valueOr(o.Noop, opts.Noop)
	opts.AllOnStart = valueOr(o.AllOnStart, opts.AllOnStart)
	opts.SourceMap = valueOr(o.SourceMap, opts.SourceMap)

	return opts, watchers
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

// Bool returns a pointer to b, for building Overrides.
func Bool(b bool) *bool {
	return &b
}

// String returns a pointer to s, for building Overrides.
func String(s string) *string {
	return &s
}

// CleanOptions controls how the inspector filters a batch.
type CleanOptions struct {
	// MissingOK keeps paths that no longer exist on disk. Used for removals.
	MissingOK bool
}

// WorkItem is a source path resolved against the watcher that matched it,
// paired with the artifact path it compiles to. It only lives for one batch.
type WorkItem struct {
	Source  string
	Target  string
	Watcher Watcher
}
