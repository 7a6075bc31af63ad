package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewPaths(t *testing.T) {
	cfg := DefaultConfig()
	root := filepath.Join(string(filepath.Separator), "projects", "crm_overrides")

	paths := NewPaths(root, cfg)

	if paths.Root != root {
		t.Errorf("Root = %s, want %s", paths.Root, root)
	}
	if paths.ConfigFile != filepath.Join(root, "crmdev.yaml") {
		t.Errorf("ConfigFile = %s", paths.ConfigFile)
	}
	if paths.StateDir != filepath.Join(root, ".crmdev") {
		t.Errorf("StateDir = %s", paths.StateDir)
	}
	if paths.ManifestFile != filepath.Join(root, ".crmdev", "build.json") {
		t.Errorf("ManifestFile = %s", paths.ManifestFile)
	}

	// Relative trees resolve against the root
	if paths.UpstreamDir != filepath.Join(root, "..", "crm", "frontend") {
		t.Errorf("UpstreamDir = %s", paths.UpstreamDir)
	}
	if paths.OverridesDir != filepath.Join(root, "overrides", "frontend") {
		t.Errorf("OverridesDir = %s", paths.OverridesDir)
	}
	if paths.BuildDir != filepath.Join(root, "build", "frontend") {
		t.Errorf("BuildDir = %s", paths.BuildDir)
	}

	// App package dir follows the app name
	if paths.AppDir != filepath.Join(root, "crm_overrides") {
		t.Errorf("AppDir = %s", paths.AppDir)
	}
	if paths.HooksFile != filepath.Join(root, "crm_overrides", "hooks.py") {
		t.Errorf("HooksFile = %s", paths.HooksFile)
	}
}

func TestNewPaths_AbsoluteTreesKept(t *testing.T) {
	cfg := DefaultConfig()
	upstream := filepath.Join(string(filepath.Separator), "srv", "crm", "frontend")
	cfg.Trees.Upstream = upstream

	paths := NewPaths(filepath.Join(string(filepath.Separator), "work", "proj"), cfg)

	if paths.UpstreamDir != upstream {
		t.Errorf("UpstreamDir = %s, want %s", paths.UpstreamDir, upstream)
	}
}

func TestFindProjectConfig(t *testing.T) {
	t.Run("finds config in start directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ProjectConfigFile)
		if err := os.WriteFile(configPath, []byte("app:\n  name: x\n"), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		found, err := FindProjectConfig(tmpDir)
		if err != nil {
			t.Fatalf("FindProjectConfig failed: %v", err)
		}
		if found != configPath {
			t.Errorf("found %s, want %s", found, configPath)
		}
	})

	t.Run("walks up to parent directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ProjectConfigFile)
		if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		subDir := filepath.Join(tmpDir, "a", "b", "c")
		if err := os.MkdirAll(subDir, 0755); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		found, err := FindProjectConfig(subDir)
		if err != nil {
			t.Fatalf("FindProjectConfig failed: %v", err)
		}
		if found != configPath {
			t.Errorf("found %s, want %s", found, configPath)
		}
	})

	t.Run("returns ErrNoProject when nothing found", func(t *testing.T) {
		_, err := FindProjectConfig(t.TempDir())
		if !errors.Is(err, ErrNoProject) {
			t.Errorf("error = %v, want ErrNoProject", err)
		}
	})

	t.Run("env var overrides discovery", func(t *testing.T) {
		tmpDir := t.TempDir()
		explicit := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(explicit, []byte(""), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		t.Setenv(EnvConfigPath, explicit)

		found, err := FindProjectConfig(t.TempDir())
		if err != nil {
			t.Fatalf("FindProjectConfig failed: %v", err)
		}
		if found != explicit {
			t.Errorf("found %s, want %s", found, explicit)
		}
	})

	t.Run("env var pointing at missing file fails", func(t *testing.T) {
		t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))

		_, err := FindProjectConfig(t.TempDir())
		if err == nil {
			t.Error("expected error for missing explicit config, got nil")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads and validates project config", func(t *testing.T) {
		tmpDir := t.TempDir()
		content := `
app:
  name: crm_overrides
trees:
  upstream: ../crm/frontend
  overrides: overrides/frontend
  build: build/frontend
`
		if err := os.WriteFile(filepath.Join(tmpDir, ProjectConfigFile), []byte(content), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		cfg, root, err := Load(tmpDir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if root != tmpDir {
			t.Errorf("root = %s, want %s", root, tmpDir)
		}
		if cfg.App.Name != "crm_overrides" {
			t.Errorf("App.Name = %s", cfg.App.Name)
		}
		// Defaults fill in unset fields
		if len(cfg.Steps) != 2 {
			t.Errorf("expected default steps, got %d", len(cfg.Steps))
		}
	})

	t.Run("invalid config fails", func(t *testing.T) {
		tmpDir := t.TempDir()
		content := "app:\n  name: 'Not Valid'\n"
		if err := os.WriteFile(filepath.Join(tmpDir, ProjectConfigFile), []byte(content), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		if _, _, err := Load(tmpDir); err == nil {
			t.Error("expected validation error, got nil")
		}
	})

	t.Run("no project fails with ErrNoProject", func(t *testing.T) {
		_, _, err := Load(t.TempDir())
		if !errors.Is(err, ErrNoProject) {
			t.Errorf("error = %v, want ErrNoProject", err)
		}
	})
}

func TestPaths_EnsureStateDir(t *testing.T) {
	tmpDir := t.TempDir()
	paths := NewPaths(tmpDir, DefaultConfig())

	if err := paths.EnsureStateDir(); err != nil {
		t.Fatalf("EnsureStateDir failed: %v", err)
	}

	info, err := os.Stat(paths.StateDir)
	if err != nil {
		t.Fatalf("state dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("state dir is not a directory")
	}

	// Idempotent
	if err := paths.EnsureStateDir(); err != nil {
		t.Errorf("EnsureStateDir on existing dir failed: %v", err)
	}
}
