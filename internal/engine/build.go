package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lethang507/crmdev/internal/manifest"
	"github.com/lethang507/crmdev/internal/planner"
	"github.com/lethang507/crmdev/internal/runner"
)

// Algorithm steps:
// 1. Preflight: the upstream tree must exist (nothing is touched otherwise)
// 2. Plan the merge across the upstream and override trees
// 3. Clear the build tree (full regeneration, no incremental state)
// 4. Execute the copy operations in order
// 5. Run the pipeline steps sequentially
// 6. Persist the build manifest, in success and in failure
//
// A failure in steps 3-5 is fatal and leaves the partial build tree in
// place; the manifest records what happened. Nothing is rolled back.
func (e *Engine) Build(ctx context.Context, req *BuildRequest) (*BuildResult, error) {
	info, err := e.fs.Lstat(e.paths.UpstreamDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUpstreamMissing, e.paths.UpstreamDir)
		}
		return nil, fmt.Errorf("failed to check upstream tree: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrUpstreamMissing, e.paths.UpstreamDir)
	}

	plan, err := planner.BuildMergePlan(
		e.fs,
		e.paths.UpstreamDir,
		e.paths.OverridesDir,
		e.paths.BuildDir,
		e.cfg.Ignore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to plan merge: %w", err)
	}

	e.logger.Debug("merge planned",
		"upstream", plan.UpstreamFiles,
		"overrides", plan.OverrideFiles,
		"overridden", len(plan.Overridden))

	if req.DryRun {
		return &BuildResult{Plan: plan, DryRun: true}, nil
	}

	m := manifest.NewBuildManifest(e.clock.Now())
	m.Upstream = e.upstreamInfo()
	m.Files = manifest.FileCounts{
		Upstream:  plan.UpstreamFiles,
		Overrides: plan.OverrideFiles,
		Written:   plan.Written(),
	}

	if err := e.fs.RemoveAll(e.paths.BuildDir); err != nil {
		return e.failBuild(plan, m, fmt.Errorf("failed to clear build tree: %w", err))
	}
	if err := e.fs.MkdirAll(e.paths.BuildDir, 0755); err != nil {
		return e.failBuild(plan, m, fmt.Errorf("failed to create build tree: %w", err))
	}

	for _, op := range plan.Operations {
		if err := e.executeOperation(op); err != nil {
			return e.failBuild(plan, m, fmt.Errorf("%w: %v", ErrMergeFailed, err))
		}
	}

	e.recordOverridden(plan, m)

	stepResults, err := e.runSteps(ctx, req, m)
	if err != nil {
		res, cause := e.failBuild(plan, m, err)
		res.Steps = stepResults
		return res, cause
	}

	m.Result = manifest.ResultSucceeded
	if req.SkipSteps {
		m.Result = manifest.ResultMerged
	}
	m.FinishedAt = e.clock.Now()
	if err := e.saveManifest(m); err != nil {
		return nil, err
	}

	e.logger.Info("build finished",
		"result", m.Result,
		"written", m.Files.Written,
		"buildId", m.BuildID)

	return &BuildResult{Plan: plan, Manifest: m, Steps: stepResults}, nil
}

// runSteps executes the configured pipeline steps in order. The first
// failure stops execution; remaining steps are recorded as skipped.
func (e *Engine) runSteps(ctx context.Context, req *BuildRequest, m *manifest.BuildManifest) ([]runner.StepResult, error) {
	var results []runner.StepResult

	for i, step := range e.cfg.Steps {
		if req.SkipSteps {
			m.Steps = append(m.Steps, skippedRecord(step.Name, step.Command))
			continue
		}

		e.logger.Info("running step", "step", step.Name, "command", step.Command)
		result := e.runner.Run(ctx, e.paths.BuildDir, step)
		results = append(results, result)

		m.Steps = append(m.Steps, manifest.StepRecord{
			Name:       result.Name,
			Command:    result.Command,
			ExitCode:   result.ExitCode,
			DurationMS: result.Duration.Milliseconds(),
		})

		if !result.OK() {
			for _, rest := range e.cfg.Steps[i+1:] {
				m.Steps = append(m.Steps, skippedRecord(rest.Name, rest.Command))
			}
			if result.Err != nil {
				return results, fmt.Errorf("%w: step %q: %v", ErrStepFailed, step.Name, result.Err)
			}
			return results, fmt.Errorf("%w: step %q exited with code %d", ErrStepFailed, step.Name, result.ExitCode)
		}

		e.logger.Debug("step finished", "step", step.Name, "duration", result.Duration)
	}

	return results, nil
}

func skippedRecord(name, command string) manifest.StepRecord {
	return manifest.StepRecord{
		Name:     name,
		Command:  command,
		ExitCode: -1,
		Skipped:  true,
	}
}

// recordOverridden hashes both layers of every path the override tree won.
// Hash failures leave the checksum empty rather than failing the build.
func (e *Engine) recordOverridden(plan *planner.MergePlan, m *manifest.BuildManifest) {
	for _, rel := range plan.Overridden {
		entry := manifest.OverriddenFile{Path: rel}

		upstreamPath := filepath.Join(e.paths.UpstreamDir, filepath.FromSlash(rel))
		if sum, err := e.hasher.HashFile(upstreamPath); err == nil {
			entry.UpstreamChecksum = sum
		}

		overridePath := filepath.Join(e.paths.OverridesDir, filepath.FromSlash(rel))
		if sum, err := e.hasher.HashFile(overridePath); err == nil {
			entry.OverrideChecksum = sum
		}

		m.Overridden = append(m.Overridden, entry)
	}
}

// failBuild records the failure in the manifest and returns the cause. The
// partial build tree is left as is for inspection.
func (e *Engine) failBuild(plan *planner.MergePlan, m *manifest.BuildManifest, cause error) (*BuildResult, error) {
	m.Result = manifest.ResultFailed
	m.Failure = cause.Error()
	m.FinishedAt = e.clock.Now()

	if err := e.saveManifest(m); err != nil {
		e.logger.Warn("failed to record build failure", "error", err)
	}

	return &BuildResult{Plan: plan, Manifest: m}, cause
}

// saveManifest persists the manifest, creating the state directory first.
func (e *Engine) saveManifest(m *manifest.BuildManifest) error {
	if err := e.fs.MkdirAll(e.paths.StateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := e.manifests.Save(m); err != nil {
		return fmt.Errorf("failed to save build manifest: %w", err)
	}
	return nil
}
