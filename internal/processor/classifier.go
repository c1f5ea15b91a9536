// Package processor adapts watcher batches to the guard: it serializes
// batches, tags each with an ID, and reports results to live reload.
package processor

import (
	"strings"

	"github.com/listenupapp/coffeeguard/internal/domain"
)

// FileType represents the type of file detected by the classifier.
type FileType int

const (
	// FileTypeSource represents CoffeeScript sources (.coffee, .coffee.md, .litcoffee).
	FileTypeSource FileType = iota
	// FileTypeArtifact represents compiled output (.js).
	FileTypeArtifact
	// FileTypeIgnored represents everything else.
	FileTypeIgnored
)

// String returns the string representation of a FileType.
func (ft FileType) String() string {
	switch ft {
	case FileTypeSource:
		return "source"
	case FileTypeArtifact:
		return "artifact"
	case FileTypeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// classifyFile determines the type of file based on its extension.
// Matching is case-sensitive, like the watch patterns themselves.
func classifyFile(path string) FileType {
	switch {
	case path == "":
		return FileTypeIgnored
	case domain.IsSource(path):
		return FileTypeSource
	case strings.HasSuffix(path, domain.TargetExtension):
		return FileTypeArtifact
	default:
		return FileTypeIgnored
	}
}

// sourcesOnly keeps the source paths of a batch list in order and counts
// what was dropped.
func sourcesOnly(paths []string) (sources []string, artifacts, ignored int) {
	for _, p := range paths {
		switch classifyFile(p) {
		case FileTypeSource:
			sources = append(sources, p)
		case FileTypeArtifact:
			artifacts++
		default:
			ignored++
		}
	}
	return sources, artifacts, ignored
}
