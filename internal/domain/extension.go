package domain

import "strings"

// TargetExtension is the extension every artifact carries.
const TargetExtension = ".js"

// sourceExtensions is ordered longest first so "a.coffee.md" is not read as
// a ".md" file.
var sourceExtensions = []string{"coffee.md", "litcoffee", "coffee"}

// SourceExtensions returns the accepted source extensions, without dots.
func SourceExtensions() []string {
	out := make([]string, len(sourceExtensions))
	copy(out, sourceExtensions)
	return out
}

// SourceExt returns the source extension of name, including the leading dot.
func SourceExt(name string) (string, bool) {
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(name, "."+ext) {
			return "." + ext, true
		}
	}
	return "", false
}

// IsSource reports whether name carries one of the source extensions.
func IsSource(name string) bool {
	_, ok := SourceExt(name)
	return ok
}

// TargetName rewrites a source file name to its artifact name.
// "a.coffee", "a.coffee.md", "a.litcoffee" and "a.js.coffee" all become "a.js".
func TargetName(name string) string {
	if stem, ok := strings.CutSuffix(name, ".js.coffee"); ok {
		return stem + TargetExtension
	}
	if ext, ok := SourceExt(name); ok {
		return strings.TrimSuffix(name, ext) + TargetExtension
	}
	return name + TargetExtension
}
