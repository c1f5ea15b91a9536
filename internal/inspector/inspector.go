// Package inspector narrows a batch of changed paths down to the source
// files that actually need work.
package inspector

import (
	"log/slog"
	"os"

	"github.com/listenupapp/coffeeguard/internal/domain"
)

// Inspector filters batches. It keeps no state between calls.
type Inspector struct {
	logger *slog.Logger
}

// New creates a new Inspector.
func New(logger *slog.Logger) *Inspector {
	return &Inspector{logger: logger}
}

// Clean returns paths with duplicates, non-source files and (unless
// opts.MissingOK) files that no longer exist removed. The first occurrence
// of every kept path stays in input order.
//
// Compiled artifacts never carry a source extension, so writing output
// cannot feed back into the next batch. Paths that cannot be inspected are
// dropped silently.
func (i *Inspector) Clean(paths []string, opts domain.CleanOptions) []string {
	seen := make(map[string]struct{}, len(paths))
	cleaned := make([]string, 0, len(paths))

	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		if !domain.IsSource(p) {
			i.logger.Debug("skipping non-source path", "path", p)
			continue
		}

		if !opts.MissingOK && !isFile(p) {
			i.logger.Debug("skipping missing source", "path", p)
			continue
		}

		cleaned = append(cleaned, p)
	}

	return cleaned
}

// isFile reports whether p currently exists as a regular file.
func isFile(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
