package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Track copies upstream files into the override tree so they shadow the
// upstream versions from the next build on. Paths are relative to the tree
// roots. Files already overridden are skipped unless Force is set; files
// missing upstream are reported, not fatal.
func (e *Engine) Track(ctx context.Context, req *TrackRequest) (*TrackResult, error) {
	if len(req.Paths) == 0 {
		return nil, fmt.Errorf("%w: no paths given", ErrValidation)
	}

	result := &TrackResult{}

	for _, rel := range req.Paths {
		rel = filepath.ToSlash(filepath.Clean(rel))
		if err := e.fs.ValidateRelPath(rel); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}

		upstreamPath := filepath.Join(e.paths.UpstreamDir, filepath.FromSlash(rel))
		overridePath := filepath.Join(e.paths.OverridesDir, filepath.FromSlash(rel))

		info, err := e.fs.Lstat(upstreamPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				result.Missing = append(result.Missing, rel)
				continue
			}
			return nil, fmt.Errorf("failed to check upstream file %s: %w", rel, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory, track files individually", ErrValidation, rel)
		}

		overridden, err := e.fs.Exists(overridePath)
		if err != nil {
			return nil, fmt.Errorf("failed to check override file %s: %w", rel, err)
		}
		if overridden && !req.Force {
			result.Skipped = append(result.Skipped, rel)
			continue
		}

		if err := e.fs.CopyFile(upstreamPath, overridePath); err != nil {
			return nil, fmt.Errorf("failed to copy %s into override tree: %w", rel, err)
		}
		result.Tracked = append(result.Tracked, rel)

		e.logger.Debug("tracked file", "path", rel, "force", req.Force)
	}

	sort.Strings(result.Tracked)
	sort.Strings(result.Skipped)
	sort.Strings(result.Missing)

	return result, nil
}

// Untrack removes files from the override tree so the upstream versions show
// through again on the next build.
func (e *Engine) Untrack(ctx context.Context, req *UntrackRequest) (*UntrackResult, error) {
	if len(req.Paths) == 0 {
		return nil, fmt.Errorf("%w: no paths given", ErrValidation)
	}

	result := &UntrackResult{}

	for _, rel := range req.Paths {
		rel = filepath.ToSlash(filepath.Clean(rel))
		if err := e.fs.ValidateRelPath(rel); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}

		overridePath := filepath.Join(e.paths.OverridesDir, filepath.FromSlash(rel))

		exists, err := e.fs.Exists(overridePath)
		if err != nil {
			return nil, fmt.Errorf("failed to check override file %s: %w", rel, err)
		}
		if !exists {
			result.NotFound = append(result.NotFound, rel)
			continue
		}

		if err := e.fs.Remove(overridePath); err != nil {
			return nil, fmt.Errorf("failed to remove override file %s: %w", rel, err)
		}
		result.Removed = append(result.Removed, rel)

		e.logger.Debug("untracked file", "path", rel)
	}

	sort.Strings(result.Removed)
	sort.Strings(result.NotFound)

	return result, nil
}
