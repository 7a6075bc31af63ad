package manifest

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current manifest schema version. Bump when the JSON
// shape changes incompatibly.
const SchemaVersion = 1

// Build results.
const (
	// ResultSucceeded means the merge and every pipeline step completed.
	ResultSucceeded = "succeeded"

	// ResultMerged means the merge completed but the pipeline steps were
	// skipped.
	ResultMerged = "merged"

	// ResultFailed means the build aborted partway. Failure holds the reason
	// and the build tree may be incomplete.
	ResultFailed = "failed"
)

// BuildManifest is the authoritative record of one overlay build.
type BuildManifest struct {
	// SchemaVersion is the schema version this manifest was written with
	SchemaVersion int `json:"schemaVersion"`

	// BuildID uniquely identifies this build
	BuildID string `json:"buildId"`

	// StartedAt is when the build began
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is when the build ended, in success or failure
	FinishedAt time.Time `json:"finishedAt"`

	// Result is one of ResultSucceeded, ResultMerged, or ResultFailed
	Result string `json:"result"`

	// Failure describes why the build failed (empty on success)
	Failure string `json:"failure,omitempty"`

	// Upstream identifies the upstream tree the build consumed
	Upstream UpstreamInfo `json:"upstream"`

	// Files counts the inputs and outputs of the merge
	Files FileCounts `json:"files"`

	// Overridden lists every path where the override layer won
	Overridden []OverriddenFile `json:"overridden"`

	// Steps records each pipeline step in execution order
	Steps []StepRecord `json:"steps"`
}

// UpstreamInfo identifies the upstream tree a build consumed.
type UpstreamInfo struct {
	// Path is the absolute path to the upstream tree
	Path string `json:"path"`

	// Ref is the upstream git HEAD commit, if the tree is inside a repository
	Ref string `json:"ref,omitempty"`

	// RemoteURL is the upstream origin URL, if configured
	RemoteURL string `json:"remoteUrl,omitempty"`
}

// FileCounts summarizes the merge inputs and outputs.
type FileCounts struct {
	// Upstream is the number of files walked in the upstream tree
	Upstream int `json:"upstream"`

	// Overrides is the number of files walked in the override tree
	Overrides int `json:"overrides"`

	// Written is the number of files written into the build tree
	Written int `json:"written"`
}

// OverriddenFile records a path present in both layers where the override won.
type OverriddenFile struct {
	// Path is the slash-separated path relative to the tree roots
	Path string `json:"path"`

	// UpstreamChecksum is the hash of the upstream file that was shadowed
	UpstreamChecksum string `json:"upstreamChecksum"`

	// OverrideChecksum is the hash of the override file that was written
	OverrideChecksum string `json:"overrideChecksum"`
}

// StepRecord records the outcome of one pipeline step.
type StepRecord struct {
	// Name is the step name from the project config
	Name string `json:"name"`

	// Command is the command line that ran
	Command string `json:"command"`

	// ExitCode is the process exit code (-1 if the process never ran)
	ExitCode int `json:"exitCode"`

	// DurationMS is how long the step ran, in milliseconds
	DurationMS int64 `json:"durationMs"`

	// Skipped is true when the step was not executed
	Skipped bool `json:"skipped,omitempty"`
}

// NewBuildManifest creates a manifest for a build starting now.
func NewBuildManifest(startedAt time.Time) *BuildManifest {
	return &BuildManifest{
		SchemaVersion: SchemaVersion,
		BuildID:       uuid.New().String(),
		StartedAt:     startedAt,
		Overridden:    []OverriddenFile{},
		Steps:         []StepRecord{},
	}
}
