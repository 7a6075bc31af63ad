// Package integration exercises whole engine flows against the real
// filesystem. Projects are laid out in temp directories; only the
// pipeline runner is faked, so no external commands run.
package integration

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lethang507/crmdev/internal/clock"
	"github.com/lethang507/crmdev/internal/config"
	"github.com/lethang507/crmdev/internal/engine"
	"github.com/lethang507/crmdev/internal/fsops"
	"github.com/lethang507/crmdev/internal/gitx"
	"github.com/lethang507/crmdev/internal/hash"
	"github.com/lethang507/crmdev/internal/manifest"
	"github.com/lethang507/crmdev/internal/runner"
)

const (
	testHead      = "c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00"
	testRemoteURL = "https://github.com/frappe/crm.git"
)

// projectEnv is one scaffolded project with an engine wired to it.
type projectEnv struct {
	Root     string
	Upstream string
	Cfg      *config.Config
	Paths    config.Paths
	Runner   *runner.FakeRunner
	Clock    *clock.FakeClock
	Eng      *engine.Engine
}

// setupProject lays out a project directory with the upstream tree next to
// it, matching the default tree layout.
func setupProject(t *testing.T) *projectEnv {
	t.Helper()

	tmp := t.TempDir()
	env := &projectEnv{
		Root:     filepath.Join(tmp, "proj"),
		Upstream: filepath.Join(tmp, "crm", "frontend"),
		Cfg:      config.DefaultConfig(),
		Runner:   runner.NewFakeRunner(),
		Clock:    clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	}

	for _, dir := range []string{env.Root, env.Upstream} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	env.reload()
	return env
}

// reload rebuilds the engine, picking up changes made to env.Cfg.
func (env *projectEnv) reload() {
	fs := fsops.NewRealFS()
	env.Paths = config.NewPaths(env.Root, env.Cfg)
	env.Eng = engine.New(
		env.Root,
		env.Cfg,
		fs,
		hash.NewSHA256Hasher(),
		env.Clock,
		gitx.NewFakeRepo(filepath.Dir(env.Upstream), testHead, testRemoteURL),
		env.Runner,
		manifest.NewFileStore(fs, env.Paths.ManifestFile),
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	)
}

// writeTree writes one file under root, creating parent directories.
func writeTree(t *testing.T, root, rel, content string) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

// seedUpstream populates the upstream tree from relative path to content.
func seedUpstream(t *testing.T, env *projectEnv, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		writeTree(t, env.Upstream, rel, content)
	}
}

// seedOverrides populates the override tree from relative path to content.
func seedOverrides(t *testing.T, env *projectEnv, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		writeTree(t, env.Paths.OverridesDir, rel, content)
	}
}

// buildTree reads the whole build tree into a relative path to content map.
func buildTree(t *testing.T, env *projectEnv) map[string]string {
	t.Helper()

	files := make(map[string]string)
	err := filepath.Walk(env.Paths.BuildDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(env.Paths.BuildDir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read build tree: %v", err)
	}
	return files
}

// loadManifest reads the build manifest recorded on disk.
func loadManifest(t *testing.T, env *projectEnv) *manifest.BuildManifest {
	t.Helper()

	store := manifest.NewFileStore(fsops.NewRealFS(), env.Paths.ManifestFile)
	m, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load build manifest: %v", err)
	}
	return m
}
