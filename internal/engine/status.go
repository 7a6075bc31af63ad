package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Status reports the current state of the project: tree locations, override
// counts, upstream identity, and the last recorded build. Every part is
// optional; a freshly initialized project reports what exists.
func (e *Engine) Status(ctx context.Context) (*StatusResult, error) {
	result := &StatusResult{
		Root:         e.root,
		AppName:      e.cfg.App.Name,
		UpstreamDir:  e.paths.UpstreamDir,
		OverridesDir: e.paths.OverridesDir,
		BuildDir:     e.paths.BuildDir,
	}

	upstreamExists, err := e.fs.Exists(e.paths.UpstreamDir)
	if err != nil {
		return nil, fmt.Errorf("failed to check upstream tree: %w", err)
	}
	result.UpstreamExists = upstreamExists

	if upstreamExists {
		if gitRoot, err := e.git.Discover(e.paths.UpstreamDir); err == nil {
			if head, err := e.git.Head(gitRoot); err == nil {
				result.UpstreamRef = head
			}
		}
	}

	overridePaths, err := e.fs.WalkFiles(e.paths.OverridesDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to walk override tree: %w", err)
	}
	result.OverrideFiles = len(overridePaths)

	buildExists, err := e.fs.Exists(e.paths.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("failed to check build tree: %w", err)
	}
	result.BuildExists = buildExists

	m, err := e.manifests.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load build manifest: %w", err)
	}
	result.LastBuild = m

	return result, nil
}
