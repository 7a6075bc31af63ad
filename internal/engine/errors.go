package engine

import "errors"

var (
	// ErrUpstreamMissing indicates the upstream tree does not exist.
	ErrUpstreamMissing = errors.New("upstream tree missing")

	// ErrStepFailed indicates a pipeline step exited non-zero or could not run.
	ErrStepFailed = errors.New("pipeline step failed")

	// ErrMergeFailed indicates a file copy failed during the merge.
	ErrMergeFailed = errors.New("merge failed")

	// ErrValidation indicates a validation failure.
	ErrValidation = errors.New("validation failed")
)
