package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// DefaultIgnorePatterns returns the base-name globs ignored when no
// patterns are configured: OS metadata and editor scratch files.
func DefaultIgnorePatterns() []string {
	return []string{".DS_Store", "*.tmp", "*.swp", "*~", "Thumbs.db"}
}

// Options configures the file watcher behavior.
type Options struct {
	IgnorePatterns []string
	// SettleDelay is how long a file must stay unchanged before it is
	// recorded as modified.
	SettleDelay time.Duration
	// BatchWindow is the quiet period after the last recorded change before
	// a batch is delivered. Defaults to SettleDelay.
	BatchWindow  time.Duration
	IgnoreHidden bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 100 * time.Millisecond
	}
	if o.BatchWindow == 0 {
		o.BatchWindow = o.SettleDelay
	}

	// Set default ignore patterns if none specified (nil, not just empty).
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = DefaultIgnorePatterns()
		// If patterns were explicitly set (even to empty slice), respect the IgnoreHidden choice.
		o.IgnoreHidden = true
	}
}

// shouldIgnore checks if a path matches ignore patterns.
func (o *Options) shouldIgnore(path string) bool {
	if o.IgnoreHidden {
		parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
		for _, part := range parts {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range o.IgnorePatterns {
		matched, err := filepath.Match(pattern, base)
		if err == nil && matched {
			return true
		}
	}

	return false
}
