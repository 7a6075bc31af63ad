package engine

// BuildRequest represents a request to rebuild the build tree.
type BuildRequest struct {
	// DryRun plans the merge without touching the filesystem
	DryRun bool

	// SkipSteps merges the trees but does not run the pipeline steps
	SkipSteps bool
}

// TrackRequest represents a request to start overriding upstream files.
type TrackRequest struct {
	// Paths is the list of files to track, relative to the tree roots
	Paths []string

	// Force overwrites override files that already exist
	Force bool
}

// UntrackRequest represents a request to stop overriding files.
type UntrackRequest struct {
	// Paths is the list of files to untrack, relative to the tree roots
	Paths []string
}

// CleanRequest represents a request to remove build outputs.
type CleanRequest struct {
	// All also removes the recorded build manifest and state directory
	All bool
}
