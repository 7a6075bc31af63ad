package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Diff compares every override file against its upstream counterpart.
// Files only present in the override tree are "added"; files present in both
// are "modified" or "identical" by content hash. When a build manifest
// exists, overridden files whose upstream changed since that build are
// flagged as drifted.
func (e *Engine) Diff(ctx context.Context) (*DiffResult, error) {
	overridePaths, err := e.fs.WalkFiles(e.paths.OverridesDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to walk override tree: %w", err)
		}
		overridePaths = nil
	}

	// Upstream checksums recorded by the last build, for drift detection.
	recorded := make(map[string]string)
	if m, err := e.manifests.Load(); err == nil {
		for _, of := range m.Overridden {
			recorded[of.Path] = of.UpstreamChecksum
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load build manifest: %w", err)
	}

	result := &DiffResult{Files: []DiffFileInfo{}}

	for _, rel := range overridePaths {
		info := DiffFileInfo{Path: rel}

		overridePath := filepath.Join(e.paths.OverridesDir, filepath.FromSlash(rel))
		if sum, err := e.hasher.HashFile(overridePath); err == nil {
			info.OverrideHash = sum
		}

		upstreamPath := filepath.Join(e.paths.UpstreamDir, filepath.FromSlash(rel))
		upstreamExists, err := e.fs.Exists(upstreamPath)
		if err != nil {
			return nil, fmt.Errorf("failed to check upstream file %s: %w", rel, err)
		}

		if !upstreamExists {
			info.Status = "added"
			result.Files = append(result.Files, info)
			continue
		}

		upstreamHash, err := e.hasher.HashFile(upstreamPath)
		if err != nil {
			return nil, fmt.Errorf("failed to hash upstream file %s: %w", rel, err)
		}
		info.UpstreamHash = upstreamHash

		if info.OverrideHash == upstreamHash {
			info.Status = "identical"
		} else {
			info.Status = "modified"
		}

		if sum, ok := recorded[rel]; ok && sum != "" && sum != upstreamHash {
			info.Drifted = true
		}

		result.Files = append(result.Files, info)
	}

	return result, nil
}
