package gitx

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// setupGitRepo creates a temporary git repository with one commit.
func setupGitRepo(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = tmpDir
		if err := cmd.Run(); err != nil {
			t.Skipf("git not usable in this environment: git %v: %v", args, err)
		}
	}

	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test User")

	if err := os.WriteFile(filepath.Join(tmpDir, "README"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	run("add", "README")
	run("commit", "-m", "initial")

	return tmpDir
}

func TestRealRepo_Discover(t *testing.T) {
	repo := NewRealRepo()

	t.Run("finds repo from root", func(t *testing.T) {
		gitDir := setupGitRepo(t)

		root, err := repo.Discover(gitDir)
		if err != nil {
			t.Fatalf("Discover failed: %v", err)
		}
		if root != gitDir {
			t.Errorf("Discover returned wrong root: got %s, want %s", root, gitDir)
		}
	})

	t.Run("finds repo from subdirectory", func(t *testing.T) {
		gitDir := setupGitRepo(t)

		subDir := filepath.Join(gitDir, "a", "b", "c")
		if err := os.MkdirAll(subDir, 0755); err != nil {
			t.Fatalf("failed to create subdirectories: %v", err)
		}

		root, err := repo.Discover(subDir)
		if err != nil {
			t.Fatalf("Discover from subdirectory failed: %v", err)
		}
		if root != gitDir {
			t.Errorf("Discover returned wrong root: got %s, want %s", root, gitDir)
		}
	})

	t.Run("returns error when not in git repo", func(t *testing.T) {
		tmpDir := t.TempDir()

		_, err := repo.Discover(tmpDir)
		if err == nil {
			t.Fatal("expected error when not in git repo, got nil")
		}
		if !strings.Contains(err.Error(), "not in a git repository") {
			t.Errorf("expected 'not in a git repository' error, got: %v", err)
		}
	})
}

func TestRealRepo_Head(t *testing.T) {
	repo := NewRealRepo()
	gitDir := setupGitRepo(t)

	head, err := repo.Head(gitDir)
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if len(head) != 40 {
		t.Errorf("Head returned %q, want a 40-char commit hash", head)
	}
}

func TestRealRepo_RemoteURL(t *testing.T) {
	repo := NewRealRepo()

	t.Run("configured remote", func(t *testing.T) {
		gitDir := setupGitRepo(t)

		cmd := exec.Command("git", "remote", "add", "origin", "git@github.com:test/repo.git")
		cmd.Dir = gitDir
		if err := cmd.Run(); err != nil {
			t.Fatalf("failed to add remote: %v", err)
		}

		url, err := repo.RemoteURL(gitDir, "origin")
		if err != nil {
			t.Fatalf("RemoteURL failed: %v", err)
		}
		if url != "git@github.com:test/repo.git" {
			t.Errorf("RemoteURL = %q, want %q", url, "git@github.com:test/repo.git")
		}
	})

	t.Run("missing remote is empty, not an error", func(t *testing.T) {
		gitDir := setupGitRepo(t)

		url, err := repo.RemoteURL(gitDir, "origin")
		if err != nil {
			t.Fatalf("RemoteURL failed: %v", err)
		}
		if url != "" {
			t.Errorf("RemoteURL = %q, want empty", url)
		}
	})
}

func TestFakeRepo(t *testing.T) {
	fake := NewFakeRepo("/repo", "abc123", "https://example.com/crm.git")

	root, err := fake.Discover("/repo/sub")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if root != "/repo" {
		t.Errorf("Discover = %q, want %q", root, "/repo")
	}

	head, err := fake.Head("/repo")
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head != "abc123" {
		t.Errorf("Head = %q, want %q", head, "abc123")
	}

	url, err := fake.RemoteURL("/repo", "origin")
	if err != nil {
		t.Fatalf("RemoteURL failed: %v", err)
	}
	if url != "https://example.com/crm.git" {
		t.Errorf("RemoteURL = %q, want %q", url, "https://example.com/crm.git")
	}

	wantErr := errors.New("boom")
	fake.SetError(wantErr)
	if _, err := fake.Discover("/repo"); !errors.Is(err, wantErr) {
		t.Errorf("Discover error = %v, want %v", err, wantErr)
	}
}
