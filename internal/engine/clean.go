package engine

import (
	"context"
	"fmt"
)

// Clean removes the build tree. With All set, the state directory and the
// recorded build manifest go too, leaving only the config and override tree.
func (e *Engine) Clean(ctx context.Context, req *CleanRequest) (*CleanResult, error) {
	result := &CleanResult{}

	buildExists, err := e.fs.Exists(e.paths.BuildDir)
	if err != nil {
		return nil, fmt.Errorf("failed to check build tree: %w", err)
	}
	if buildExists {
		if err := e.fs.RemoveAll(e.paths.BuildDir); err != nil {
			return nil, fmt.Errorf("failed to remove build tree: %w", err)
		}
		result.Removed = append(result.Removed, e.paths.BuildDir)
	}

	if req.All {
		if err := e.manifests.Delete(); err != nil {
			return nil, fmt.Errorf("failed to delete build manifest: %w", err)
		}

		stateExists, err := e.fs.Exists(e.paths.StateDir)
		if err != nil {
			return nil, fmt.Errorf("failed to check state directory: %w", err)
		}
		if stateExists {
			if err := e.fs.RemoveAll(e.paths.StateDir); err != nil {
				return nil, fmt.Errorf("failed to remove state directory: %w", err)
			}
			result.Removed = append(result.Removed, e.paths.StateDir)
		}
	}

	e.logger.Info("cleaned", "removed", len(result.Removed), "all", req.All)

	return result, nil
}
