package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lethang507/crmdev/internal/config"
)

// StepResult captures the outcome of one pipeline step.
type StepResult struct {
	// Name is the step name from the project config
	Name string

	// Command is the command line that ran
	Command string

	// Dir is the working directory the step ran in
	Dir string

	// ExitCode is the process exit code (-1 if the process never ran)
	ExitCode int

	// Stdout is the captured standard output
	Stdout string

	// Stderr is the captured standard error
	Stderr string

	// Duration is how long the step ran
	Duration time.Duration

	// Err is set when the step could not run or was cut short (bad command,
	// missing binary, timeout, cancellation). A non-zero exit from a process
	// that ran to completion is reported through ExitCode, not Err.
	Err error
}

// OK reports whether the step ran to completion and exited zero.
func (r StepResult) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner executes pipeline steps.
type Runner interface {
	// Run executes one step with root as the base working directory.
	Run(ctx context.Context, root string, step config.Step) StepResult
}

// ExecRunner implements Runner using os/exec.
//
// Commands are tokenised and executed directly, never through a shell. A step
// that needs shell features should invoke one explicitly ("sh -c '...'").
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes one step with root as the base working directory.
func (er *ExecRunner) Run(ctx context.Context, root string, step config.Step) StepResult {
	result := StepResult{
		Name:    step.Name,
		Command: step.Command,
		Dir:     root,
	}
	if step.Dir != "" {
		result.Dir = filepath.Join(root, step.Dir)
	}

	args := splitCommand(step.Command)
	if len(args) == 0 {
		result.ExitCode = -1
		result.Err = fmt.Errorf("step %q has an empty command", step.Name)
		return result
	}

	timeout := step.GetTimeout()
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, args[0], args[1:]...)
	cmd.Dir = result.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if runErr != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		switch {
		case cmdCtx.Err() != nil:
			if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
				result.Err = fmt.Errorf("step %q timed out after %s", step.Name, timeout)
			} else {
				result.Err = fmt.Errorf("step %q canceled: %w", step.Name, cmdCtx.Err())
			}
		case errors.As(runErr, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		default:
			result.Err = fmt.Errorf("step %q failed to start: %w", step.Name, runErr)
		}
	}

	return result
}

// splitCommand tokenises a command string on spaces, preserving single- and
// double-quoted tokens. It does not support escape sequences or nested
// quoting; commands that need more should wrap themselves in a shell
// invocation.
func splitCommand(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingle := false
	inDouble := false

	for _, r := range cmd {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case r == ' ' && !inSingle && !inDouble:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// FakeRunner is a test double that records steps without executing them.
type FakeRunner struct {
	RunCalls []RunCall

	// Results maps step names to scripted results. Steps without an entry
	// succeed with exit code 0.
	Results map[string]StepResult
}

// RunCall records one Run invocation.
type RunCall struct {
	Root string
	Step config.Step
}

// NewFakeRunner creates a new FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Results: make(map[string]StepResult),
	}
}

// ScriptResult configures the result returned for the named step.
func (f *FakeRunner) ScriptResult(name string, result StepResult) {
	f.Results[name] = result
}

// Run records the invocation and returns the scripted result, or success.
func (f *FakeRunner) Run(ctx context.Context, root string, step config.Step) StepResult {
	f.RunCalls = append(f.RunCalls, RunCall{
		Root: root,
		Step: step,
	})

	if result, ok := f.Results[step.Name]; ok {
		if result.Name == "" {
			result.Name = step.Name
		}
		if result.Command == "" {
			result.Command = step.Command
		}
		return result
	}

	return StepResult{
		Name:     step.Name,
		Command:  step.Command,
		Dir:      root,
		Duration: time.Millisecond,
	}
}
