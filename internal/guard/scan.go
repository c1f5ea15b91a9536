package guard

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/listenupapp/coffeeguard/internal/domain"
)

// ScanSources walks root in lexical order and returns every file carrying a
// source extension. Hidden files and directories are skipped, and paths are
// returned as root-joined paths so they line up with watcher events.
func ScanSources(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable entries are not fatal to the scan.
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			if path == root {
				return err
			}
			return nil
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !domain.IsSource(d.Name()) {
			return nil
		}

		files = append(files, filepath.ToSlash(path))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
