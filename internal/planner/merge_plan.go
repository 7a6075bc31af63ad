package planner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lethang507/crmdev/internal/fsops"
	"github.com/lethang507/crmdev/internal/overlay"
)

// BuildMergePlan generates a deterministic plan to rebuild destRoot from the
// upstream and override trees.
//
// Upstream copies come first in walk order, then override copies, so
// executing the operations in order always leaves the override content in
// place for paths both layers provide. A missing override tree is not an
// error; the plan then contains upstream operations only. Ignore patterns
// apply to both layers.
func BuildMergePlan(
	fs fsops.FS,
	upstreamRoot string,
	overrideRoot string,
	destRoot string,
	ignore []string,
) (*MergePlan, error) {
	upstreamPaths, err := fs.WalkFiles(upstreamRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to walk upstream tree: %w", err)
	}
	upstreamPaths = filterIgnored(upstreamPaths, ignore)

	overridePaths, err := fs.WalkFiles(overrideRoot)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to walk override tree: %w", err)
		}
		overridePaths = nil
	}
	overridePaths = filterIgnored(overridePaths, ignore)

	index := overlay.BuildIndex(upstreamPaths, overridePaths)

	plan := NewMergePlan()
	plan.UpstreamFiles = len(upstreamPaths)
	plan.OverrideFiles = len(overridePaths)
	plan.Overridden = overlay.Overridden(index)

	for _, rel := range upstreamPaths {
		plan.AddOperation(Operation{
			Type:       OpCopy,
			SourcePath: filepath.Join(upstreamRoot, filepath.FromSlash(rel)),
			DestPath:   filepath.Join(destRoot, filepath.FromSlash(rel)),
			RelPath:    rel,
			Layer:      overlay.SourceUpstream,
		})
	}
	for _, rel := range overridePaths {
		plan.AddOperation(Operation{
			Type:       OpCopy,
			SourcePath: filepath.Join(overrideRoot, filepath.FromSlash(rel)),
			DestPath:   filepath.Join(destRoot, filepath.FromSlash(rel)),
			RelPath:    rel,
			Layer:      overlay.SourceOverride,
		})
	}

	return plan, nil
}

// filterIgnored drops paths matching any of the ignore patterns.
func filterIgnored(paths []string, ignore []string) []string {
	if len(ignore) == 0 {
		return paths
	}

	kept := paths[:0:0]
	for _, path := range paths {
		if !matchesAny(path, ignore) {
			kept = append(kept, path)
		}
	}
	return kept
}

// matchesAny returns true if relPath matches any of the glob patterns.
// Patterns use doublestar semantics, so "node_modules/**" matches the whole
// subtree. Invalid patterns never match; config validation rejects them
// before a plan is built.
func matchesAny(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}
