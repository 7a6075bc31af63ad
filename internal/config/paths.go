package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project config file.
	ProjectConfigFile = "crmdev.yaml"

	// EnvConfigPath overrides config discovery with an explicit file path.
	EnvConfigPath = "CRMDEV_CONFIG"

	// StateDirName is the project-local directory holding tool state.
	StateDirName = ".crmdev"
)

// ErrNoProject indicates no crmdev.yaml was found from the start directory
// up to the filesystem root.
var ErrNoProject = errors.New("no crmdev.yaml found")

// Paths contains the resolved filesystem paths of one project.
// All paths are absolute; relative tree paths from the config are
// resolved against the project root.
type Paths struct {
	// Root is the project root (the directory containing crmdev.yaml).
	Root string

	// ConfigFile is the path to crmdev.yaml.
	ConfigFile string

	// StateDir is the .crmdev state directory.
	StateDir string

	// ManifestFile is the build manifest path inside StateDir.
	ManifestFile string

	// UpstreamDir is the upstream source tree.
	UpstreamDir string

	// OverridesDir is the sparse override tree.
	OverridesDir string

	// BuildDir is the derived merged tree.
	BuildDir string

	// AppDir is the app package directory at the project root.
	AppDir string

	// HooksFile is the rendered hooks.py inside AppDir.
	HooksFile string
}

// NewPaths resolves all project paths from the root and configuration.
func NewPaths(root string, cfg *Config) Paths {
	resolve := func(path string) string {
		if filepath.IsAbs(path) {
			return filepath.Clean(path)
		}
		return filepath.Join(root, path)
	}

	stateDir := filepath.Join(root, StateDirName)
	appDir := filepath.Join(root, cfg.App.Name)

	return Paths{
		Root:         root,
		ConfigFile:   filepath.Join(root, ProjectConfigFile),
		StateDir:     stateDir,
		ManifestFile: filepath.Join(stateDir, "build.json"),
		UpstreamDir:  resolve(cfg.Trees.Upstream),
		OverridesDir: resolve(cfg.Trees.Overrides),
		BuildDir:     resolve(cfg.Trees.Build),
		AppDir:       appDir,
		HooksFile:    filepath.Join(appDir, "hooks.py"),
	}
}

// EnsureStateDir creates the state directory if it does not exist.
func (p Paths) EnsureStateDir() error {
	if err := os.MkdirAll(p.StateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}

// FindProjectConfig locates the project config file.
//
// When CRMDEV_CONFIG is set, that path is used and must exist. Otherwise
// the search walks up from startDir until a directory containing
// crmdev.yaml is found. Returns ErrNoProject when nothing is found.
func FindProjectConfig(startDir string) (string, error) {
	if env := os.Getenv(EnvConfigPath); env != "" {
		abs, err := filepath.Abs(env)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", EnvConfigPath, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("%s points to %s: %w", EnvConfigPath, abs, err)
		}
		return abs, nil
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return "", ErrNoProject
		}
		dir = parent
	}
}

// Load finds and loads the project configuration starting from startDir.
// It returns the validated config and the project root.
func Load(startDir string) (*Config, string, error) {
	configPath, err := FindProjectConfig(startDir)
	if err != nil {
		return nil, "", err
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config at %s: %w", configPath, err)
	}

	return cfg, filepath.Dir(configPath), nil
}
