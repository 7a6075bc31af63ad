// Package overlay defines the merge semantics for layering an override
// tree on top of an upstream tree.
//
// The rules live here as pure functions over in-memory path mappings so
// they can be reasoned about and tested without touching a filesystem.
// The planner and engine realize the same semantics on disk: every path
// from the upstream layer passes through unless the override layer
// provides the same path, in which case the override content wins.
package overlay

import "sort"

// Source identifies the layer a merged path came from.
type Source string

const (
	// SourceUpstream marks a path that passed through from the upstream tree.
	SourceUpstream Source = "upstream"

	// SourceOverride marks a path whose content comes from the override tree.
	SourceOverride Source = "override"
)

// FileSet maps slash-separated relative paths to file contents.
type FileSet map[string][]byte

// Index maps slash-separated relative paths to the layer that wins for them.
type Index map[string]Source

// Merge layers override on top of upstream and returns the result as a new
// FileSet. Neither input is mutated. Paths present in both layers take the
// override content; all other paths pass through unchanged.
func Merge(upstream, override FileSet) FileSet {
	merged := make(FileSet, len(upstream)+len(override))
	for path, content := range upstream {
		merged[path] = content
	}
	for path, content := range override {
		merged[path] = content
	}
	return merged
}

// BuildIndex applies the same last-layer-wins rule at the path level,
// without any content. The planner uses it to decide the winning source
// per path before any file is read.
func BuildIndex(upstreamPaths, overridePaths []string) Index {
	idx := make(Index, len(upstreamPaths)+len(overridePaths))
	for _, path := range upstreamPaths {
		idx[path] = SourceUpstream
	}
	for _, path := range overridePaths {
		idx[path] = SourceOverride
	}
	return idx
}

// Overridden returns the sorted paths whose winning source is the override
// layer.
func Overridden(idx Index) []string {
	var paths []string
	for path, src := range idx {
		if src == SourceOverride {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Paths returns the sorted paths of a FileSet for deterministic iteration.
func Paths(fs FileSet) []string {
	paths := make([]string, 0, len(fs))
	for path := range fs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
