// Package id generates the short identifiers that tag batches and
// live-reload clients in logs and events.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Prefixes used across the pipeline.
	PrefixBatch  = "batch"
	PrefixClient = "lr"

	// shortAlphabet avoids characters that are awkward to grep for in logs.
	shortAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	shortLength   = 10
)

// Generate creates a prefixed unique ID using the default NanoID
// (21 characters, URL-safe alphabet). Format: prefix-nanoid.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Short creates a prefixed 10 character lowercase ID, e.g. "batch-k3v9x0q2mz".
// Collisions are acceptable for IDs that only correlate log lines.
func Short(prefix string) (string, error) {
	id, err := gonanoid.Generate(shortAlphabet, shortLength)
	if err != nil {
		return "", fmt.Errorf("generate short nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Batch returns a new batch ID. Entropy failures fall back to a fixed
// marker so a batch is never dropped for want of a log tag.
func Batch() string {
	id, err := Short(PrefixBatch)
	if err != nil {
		return PrefixBatch + "-unknown"
	}
	return id
}
