package watcher

import (
	"path/filepath"
	"slices"
)

// EventType represents the kind of change recorded for a path.
type EventType int

const (
	// EventModified is recorded when a file was created or written and has settled.
	EventModified EventType = iota
	// EventRemoved is recorded when a file was deleted or moved away.
	EventRemoved
)

// String returns the string representation of the event type
func (t EventType) String() string {
	switch t {
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Batch is one coalesced set of changes. A path appears in at most one of
// the two lists; the last change seen for it wins. Both lists are sorted.
type Batch struct {
	Modified []string
	Removed  []string
}

// Empty reports whether the batch carries no paths.
func (b Batch) Empty() bool {
	return len(b.Modified) == 0 && len(b.Removed) == 0
}

// Len returns the number of paths in the batch.
func (b Batch) Len() int {
	return len(b.Modified) + len(b.Removed)
}

// collector accumulates settled changes until the next flush.
type collector struct {
	changes map[string]EventType
}

func newCollector() *collector {
	return &collector{changes: make(map[string]EventType)}
}

func (c *collector) add(path string, t EventType) {
	c.changes[filepath.ToSlash(path)] = t
}

func (c *collector) len() int {
	return len(c.changes)
}

// drain returns the accumulated batch and resets the collector.
func (c *collector) drain() Batch {
	var b Batch
	for path, t := range c.changes {
		switch t {
		case EventModified:
			b.Modified = append(b.Modified, path)
		case EventRemoved:
			b.Removed = append(b.Removed, path)
		}
	}
	slices.Sort(b.Modified)
	slices.Sort(b.Removed)
	clear(c.changes)
	return b
}
