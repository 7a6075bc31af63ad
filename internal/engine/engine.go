// Package engine provides the core business logic for crmdev operations.
//
// The engine package acts as the orchestration layer between CLI commands and
// lower-level operations. It coordinates overlay builds, override tracking,
// hook registry generation, and build manifest persistence.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Build: Merges upstream and override trees and runs pipeline steps
//   - Track/Untrack: Manages which files the override tree shadows
//   - RenderHooks/CheckHooks: Generates and verifies the hook registry
package engine

import (
	"fmt"
	"log/slog"

	"github.com/lethang507/crmdev/internal/clock"
	"github.com/lethang507/crmdev/internal/config"
	"github.com/lethang507/crmdev/internal/fsops"
	"github.com/lethang507/crmdev/internal/gitx"
	"github.com/lethang507/crmdev/internal/hash"
	"github.com/lethang507/crmdev/internal/manifest"
	"github.com/lethang507/crmdev/internal/planner"
	"github.com/lethang507/crmdev/internal/runner"
)

// Engine orchestrates all crmdev operations.
// It is the main API surface called by the CLI.
type Engine struct {
	root      string
	cfg       *config.Config
	paths     config.Paths
	fs        fsops.FS
	hasher    hash.Hasher
	clock     clock.Clock
	git       gitx.Repo
	runner    runner.Runner
	manifests manifest.Store
	logger    *slog.Logger
}

// New creates a new Engine rooted at the given project directory.
func New(
	root string,
	cfg *config.Config,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	git gitx.Repo,
	run runner.Runner,
	manifests manifest.Store,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		root:      root,
		cfg:       cfg,
		paths:     config.NewPaths(root, cfg),
		fs:        fs,
		hasher:    hasher,
		clock:     clk,
		git:       git,
		runner:    run,
		manifests: manifests,
		logger:    logger,
	}
}

// Paths returns the resolved project paths.
func (e *Engine) Paths() config.Paths {
	return e.paths
}

// executeOperation executes a single plan operation.
func (e *Engine) executeOperation(op planner.Operation) error {
	switch op.Type {
	case planner.OpCopy:
		if err := e.fs.CopyFile(op.SourcePath, op.DestPath); err != nil {
			return fmt.Errorf("failed to copy %s: %w", op.RelPath, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

// upstreamInfo captures the identity of the upstream tree. Git details are
// best effort; a non-repository upstream yields only the path.
func (e *Engine) upstreamInfo() manifest.UpstreamInfo {
	info := manifest.UpstreamInfo{
		Path: e.paths.UpstreamDir,
	}

	gitRoot, err := e.git.Discover(e.paths.UpstreamDir)
	if err != nil {
		return info
	}

	if head, err := e.git.Head(gitRoot); err == nil {
		info.Ref = head
	}
	if url, err := e.git.RemoteURL(gitRoot, "origin"); err == nil {
		info.RemoteURL = url
	}

	return info
}
