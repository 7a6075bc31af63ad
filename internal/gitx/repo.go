// Package gitx inspects git repositories to stamp builds with upstream
// provenance.
//
// The upstream tree usually sits inside a git checkout of the vendor
// product. When it does, the build manifest records the commit the merge
// was produced from; when it does not, provenance is simply left empty.
package gitx

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo provides an abstraction for git repository inspection.
type Repo interface {
	// Discover finds the git repository root containing startPath.
	Discover(startPath string) (root string, err error)

	// Head returns the commit hash the repository is currently at.
	Head(root string) (string, error)

	// RemoteURL returns the URL of the named remote, or an empty string
	// if the remote is not configured.
	RemoteURL(root, remote string) (string, error)
}

// RealRepo implements Repo using the git executable.
type RealRepo struct{}

// NewRealRepo creates a new RealRepo.
func NewRealRepo() *RealRepo {
	return &RealRepo{}
}

// Discover finds the git repository root by walking up from startPath
// looking for a .git entry.
func (g *RealRepo) Discover(startPath string) (string, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	current := absPath
	for {
		gitDir := filepath.Join(current, ".git")
		if info, err := os.Stat(gitDir); err == nil {
			// .git can be a directory or a file (for worktrees/submodules)
			if info.IsDir() || info.Mode().IsRegular() {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached root directory
			return "", fmt.Errorf("not in a git repository")
		}
		current = parent
	}
}

// Head returns the commit hash of HEAD.
func (g *RealRepo) Head(root string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// RemoteURL returns the URL configured for the named remote.
// A missing remote is not an error; the URL is empty.
func (g *RealRepo) RemoteURL(root, remote string) (string, error) {
	cmd := exec.Command("git", "config", "--get", "remote."+remote+".url")
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", fmt.Errorf("failed to read remote URL: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// FakeRepo implements Repo with predetermined values for testing.
type FakeRepo struct {
	root      string
	head      string
	remoteURL string
	err       error
}

// NewFakeRepo creates a new FakeRepo.
func NewFakeRepo(root, head, remoteURL string) *FakeRepo {
	return &FakeRepo{
		root:      root,
		head:      head,
		remoteURL: remoteURL,
	}
}

// SetError sets an error to be returned by all methods.
func (g *FakeRepo) SetError(err error) {
	g.err = err
}

// Discover returns the predetermined root.
func (g *FakeRepo) Discover(startPath string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.root, nil
}

// Head returns the predetermined commit hash.
func (g *FakeRepo) Head(root string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.head, nil
}

// RemoteURL returns the predetermined remote URL.
func (g *FakeRepo) RemoteURL(root, remote string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.remoteURL, nil
}
