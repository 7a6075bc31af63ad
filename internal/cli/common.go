package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lethang507/crmdev/internal/clock"
	"github.com/lethang507/crmdev/internal/config"
	"github.com/lethang507/crmdev/internal/engine"
	"github.com/lethang507/crmdev/internal/fsops"
	"github.com/lethang507/crmdev/internal/gitx"
	"github.com/lethang507/crmdev/internal/hash"
	"github.com/lethang507/crmdev/internal/manifest"
	"github.com/lethang507/crmdev/internal/runner"
)

// loadProject locates and loads the project configuration. The --config
// flag short-circuits discovery; otherwise the search walks up from the
// current directory.
func loadProject() (*config.Config, string, error) {
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to resolve --config: %w", err)
		}
		cfg, err := config.LoadFromFile(abs)
		if err != nil {
			return nil, "", err
		}
		if err := cfg.Validate(); err != nil {
			return nil, "", fmt.Errorf("invalid config at %s: %w", abs, err)
		}
		return cfg, filepath.Dir(abs), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, root, err := config.Load(cwd)
	if errors.Is(err, config.ErrNoProject) {
		return nil, "", fmt.Errorf("%w\nRun 'crmdev init' to create a project here", err)
	}
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

// newEngine creates an engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	cfg, root, err := loadProject()
	if err != nil {
		return nil, err
	}
	return buildEngine(cfg, root), nil
}

// buildEngine wires up an engine for an already loaded project.
func buildEngine(cfg *config.Config, root string) *engine.Engine {
	fs := fsops.NewRealFS()
	paths := config.NewPaths(root, cfg)

	return engine.New(
		root,
		cfg,
		fs,
		hash.NewSHA256Hasher(),
		&clock.RealClock{},
		gitx.NewRealRepo(),
		runner.NewExecRunner(),
		manifest.NewFileStore(fs, paths.ManifestFile),
		newLogger(),
	)
}

// newLogger builds a structured logger honoring the --log-level flag.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	initColors()
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
