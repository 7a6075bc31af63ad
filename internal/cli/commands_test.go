package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lethang507/crmdev/internal/config"
)

// resetGlobalFlags restores flag-bound globals so tests do not leak
// state into each other.
func resetGlobalFlags() {
	jsonOutput = false
	logLevel = "warn"
	configPath = ""
	buildDryRun = false
	buildSkipSteps = false
	watchSkipSteps = false
	cleanAll = false
	trackForce = false
	initForce = false
	diffShowIdentical = false
}

func writeProjectFile(t *testing.T, dir, rel, content string) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// setupProject scaffolds a project with a small upstream tree next to it
// and points config discovery at it. Build steps are emptied so builds
// stop after the merge.
func setupProject(t *testing.T) (root, upstream string) {
	t.Helper()
	resetGlobalFlags()

	tmp := t.TempDir()
	root = filepath.Join(tmp, "proj")
	upstream = filepath.Join(tmp, "crm", "frontend")
	for _, dir := range []string{root, upstream} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Steps = nil
	if err := cfg.SaveToFile(filepath.Join(root, config.ProjectConfigFile)); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	writeProjectFile(t, upstream, "a.txt", "1")
	writeProjectFile(t, upstream, "b.txt", "2")

	t.Setenv(config.EnvConfigPath, filepath.Join(root, config.ProjectConfigFile))
	return root, upstream
}

func runCommand(t *testing.T, args ...string) error {
	t.Helper()

	rootCmd.SetArgs(args)
	var bufOut, bufErr bytes.Buffer
	rootCmd.SetOut(&bufOut)
	rootCmd.SetErr(&bufErr)
	return rootCmd.Execute()
}

func TestBuildCommand_MergesTrees(t *testing.T) {
	root, _ := setupProject(t)
	writeProjectFile(t, filepath.Join(root, "overrides/frontend"), "b.txt", "X")

	if err := runCommand(t, "build"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "build/frontend/a.txt"))
	if err != nil {
		t.Fatalf("expected a.txt in build tree: %v", err)
	}
	if string(got) != "1" {
		t.Errorf("expected a.txt content 1, got %s", got)
	}

	got, err = os.ReadFile(filepath.Join(root, "build/frontend/b.txt"))
	if err != nil {
		t.Fatalf("expected b.txt in build tree: %v", err)
	}
	if string(got) != "X" {
		t.Errorf("expected override to win for b.txt, got %s", got)
	}

	if _, err := os.Stat(filepath.Join(root, ".crmdev/build.json")); err != nil {
		t.Errorf("expected build manifest: %v", err)
	}
}

func TestBuildCommand_DryRunWritesNothing(t *testing.T) {
	root, _ := setupProject(t)

	if err := runCommand(t, "build", "--dry-run"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "build")); !os.IsNotExist(err) {
		t.Error("expected no build tree after dry run")
	}
	if _, err := os.Stat(filepath.Join(root, ".crmdev/build.json")); !os.IsNotExist(err) {
		t.Error("expected no manifest after dry run")
	}
}

func TestBuildCommand_MissingUpstreamFails(t *testing.T) {
	_, upstream := setupProject(t)
	if err := os.RemoveAll(upstream); err != nil {
		t.Fatalf("failed to remove upstream: %v", err)
	}

	err := runCommand(t, "build")
	if err == nil {
		t.Fatal("expected error for missing upstream tree")
	}
	if !strings.Contains(err.Error(), "upstream tree missing") {
		t.Errorf("expected upstream error, got %v", err)
	}
}

func TestTrackUntrackCommands_RoundTrip(t *testing.T) {
	root, _ := setupProject(t)
	override := filepath.Join(root, "overrides/frontend/a.txt")

	if err := runCommand(t, "track", "a.txt"); err != nil {
		t.Fatalf("track error = %v", err)
	}
	got, err := os.ReadFile(override)
	if err != nil {
		t.Fatalf("expected override copy: %v", err)
	}
	if string(got) != "1" {
		t.Errorf("expected upstream content 1, got %s", got)
	}

	if err := runCommand(t, "untrack", "a.txt"); err != nil {
		t.Fatalf("untrack error = %v", err)
	}
	if _, err := os.Stat(override); !os.IsNotExist(err) {
		t.Error("expected override to be removed")
	}
}

func TestTrackCommand_MissingPathFails(t *testing.T) {
	setupProject(t)

	err := runCommand(t, "track", "nope.txt")
	if err == nil {
		t.Fatal("expected error for unknown upstream path")
	}
	if !strings.Contains(err.Error(), "not found in upstream tree") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStatusCommand_JSON(t *testing.T) {
	root, _ := setupProject(t)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := runCommand(t, "status", "--json")

	_ = w.Close()
	os.Stdout = oldStdout
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)

	var status map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &status); err != nil {
		t.Fatalf("expected valid JSON, got error: %v, output: %q", err, buf.String())
	}
	if status["root"] != root {
		t.Errorf("expected root %s, got %v", root, status["root"])
	}
	if status["appName"] != "crm_overrides" {
		t.Errorf("expected appName crm_overrides, got %v", status["appName"])
	}
}

func TestCleanCommand(t *testing.T) {
	root, _ := setupProject(t)

	if err := runCommand(t, "build"); err != nil {
		t.Fatalf("build error = %v", err)
	}
	if err := runCommand(t, "clean"); err != nil {
		t.Fatalf("clean error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "build/frontend")); !os.IsNotExist(err) {
		t.Error("expected build tree removed")
	}
	if _, err := os.Stat(filepath.Join(root, ".crmdev/build.json")); err != nil {
		t.Error("expected manifest to survive a plain clean")
	}

	if err := runCommand(t, "clean", "--all"); err != nil {
		t.Fatalf("clean --all error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".crmdev")); !os.IsNotExist(err) {
		t.Error("expected state directory removed")
	}
}

func TestHooksRenderCommand(t *testing.T) {
	root, _ := setupProject(t)

	cfg := config.DefaultConfig()
	cfg.Steps = nil
	cfg.Hooks.ClassOverrides = map[string]string{
		"CRM Lead": "crm_overrides.overrides.lead.CustomLead",
	}
	if err := cfg.SaveToFile(filepath.Join(root, config.ProjectConfigFile)); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if err := runCommand(t, "hooks", "render"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "crm_overrides/hooks.py"))
	if err != nil {
		t.Fatalf("expected rendered hooks.py: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `app_name = "crm_overrides"`) {
		t.Errorf("expected app_name line, got:\n%s", content)
	}
	if !strings.Contains(content, `"CRM Lead": "crm_overrides.overrides.lead.CustomLead"`) {
		t.Errorf("expected class override entry, got:\n%s", content)
	}
}

func TestHooksCheckCommand(t *testing.T) {
	root, _ := setupProject(t)

	cfg := config.DefaultConfig()
	cfg.Steps = nil
	cfg.Hooks.ClassOverrides = map[string]string{
		"CRM Lead": "crm_overrides.overrides.lead.CustomLead",
	}
	if err := cfg.SaveToFile(filepath.Join(root, config.ProjectConfigFile)); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Target module absent: check must fail.
	if err := runCommand(t, "hooks", "check"); err == nil {
		t.Fatal("expected error for unresolved target")
	}

	writeProjectFile(t, root, "crm_overrides/overrides/lead.py", "class CustomLead:\n    pass\n")

	if err := runCommand(t, "hooks", "check"); err != nil {
		t.Fatalf("expected check to pass: %v", err)
	}
}

func TestInitCommand(t *testing.T) {
	resetGlobalFlags()
	tmp := t.TempDir()

	oldDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get current directory: %v", err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(oldDir)
	}()

	if err := runCommand(t, "init"); err != nil {
		t.Fatalf("init error = %v", err)
	}

	for _, rel := range []string{
		"crmdev.yaml",
		"overrides/frontend",
		".crmdev/.gitignore",
		"crm_overrides/__init__.py",
		".gitignore",
	} {
		if _, err := os.Stat(filepath.Join(tmp, rel)); err != nil {
			t.Errorf("expected %s to exist: %v", rel, err)
		}
	}

	// A second init must refuse to clobber the config.
	if err := runCommand(t, "init"); err == nil {
		t.Fatal("expected error when crmdev.yaml already exists")
	}

	if err := runCommand(t, "init", "--force"); err != nil {
		t.Fatalf("init --force error = %v", err)
	}
}
