package engine

import (
	"github.com/lethang507/crmdev/internal/hooks"
	"github.com/lethang507/crmdev/internal/manifest"
	"github.com/lethang507/crmdev/internal/planner"
	"github.com/lethang507/crmdev/internal/runner"
)

// BuildResult represents the result of a build.
type BuildResult struct {
	// Plan is the merge plan that was generated
	Plan *planner.MergePlan

	// Manifest is the recorded build manifest (nil for dry runs)
	Manifest *manifest.BuildManifest

	// Steps holds the raw step results, including captured output. The
	// manifest keeps only the durable facts; output lives here so a
	// caller can show why a step failed.
	Steps []runner.StepResult

	// DryRun indicates no filesystem changes were made
	DryRun bool
}

// TrackResult represents the result of a track operation.
type TrackResult struct {
	// Tracked contains paths that were copied into the override tree
	Tracked []string

	// Skipped contains paths already overridden and left untouched
	Skipped []string

	// Missing contains paths not found in the upstream tree
	Missing []string
}

// UntrackResult represents the result of an untrack operation.
type UntrackResult struct {
	// Removed contains paths that were removed from the override tree
	Removed []string

	// NotFound contains paths that were not overridden
	NotFound []string
}

// DiffFileInfo describes one override file relative to upstream.
type DiffFileInfo struct {
	// Path is the slash-separated path relative to the tree roots
	Path string `json:"path"`

	// Status is "added", "modified", or "identical"
	Status string `json:"status"`

	// OverrideHash is the hash of the override file
	OverrideHash string `json:"overrideHash,omitempty"`

	// UpstreamHash is the hash of the upstream file (empty when added)
	UpstreamHash string `json:"upstreamHash,omitempty"`

	// Drifted is true when the upstream file changed since the last build
	Drifted bool `json:"drifted,omitempty"`
}

// DiffResult represents the result of a diff operation.
type DiffResult struct {
	// Files contains every override file with its status, sorted by path
	Files []DiffFileInfo `json:"files"`
}

// StatusResult represents the current project status.
type StatusResult struct {
	// Root is the project root directory
	Root string `json:"root"`

	// AppName is the configured override app name
	AppName string `json:"appName"`

	// UpstreamDir is the resolved upstream tree path
	UpstreamDir string `json:"upstreamDir"`

	// UpstreamExists indicates whether the upstream tree is present
	UpstreamExists bool `json:"upstreamExists"`

	// UpstreamRef is the upstream git HEAD, when available
	UpstreamRef string `json:"upstreamRef,omitempty"`

	// OverridesDir is the resolved override tree path
	OverridesDir string `json:"overridesDir"`

	// OverrideFiles is the number of files in the override tree
	OverrideFiles int `json:"overrideFiles"`

	// BuildDir is the resolved build tree path
	BuildDir string `json:"buildDir"`

	// BuildExists indicates whether the build tree is present
	BuildExists bool `json:"buildExists"`

	// LastBuild is the most recent build manifest (nil if never built)
	LastBuild *manifest.BuildManifest `json:"lastBuild,omitempty"`
}

// CleanResult represents the result of a clean operation.
type CleanResult struct {
	// Removed contains the paths that were removed
	Removed []string
}

// RenderHooksResult represents the result of rendering the hook registry.
type RenderHooksResult struct {
	// Path is where the registry file was written
	Path string

	// Size is the number of bytes written
	Size int
}

// CheckHooksResult represents the result of checking the hook registry.
type CheckHooksResult struct {
	// Report describes every checked override target
	Report *hooks.CheckReport
}
