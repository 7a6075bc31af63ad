package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lethang507/crmdev/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a crmdev project",
	Long: `Initialize a crmdev project in the current directory.

This writes a crmdev.yaml with defaults, creates the override tree, the
override app package and the .crmdev state directory. Edit crmdev.yaml
afterwards to point trees.upstream at the vendor source tree.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false,
		"Overwrite an existing crmdev.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configFile := filepath.Join(cwd, config.ProjectConfigFile)
	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("%s already exists at %s\nUse --force to overwrite", config.ProjectConfigFile, configFile)
	}

	cfg := config.DefaultConfig()
	if err := cfg.SaveToFile(configFile); err != nil {
		return err
	}

	paths := config.NewPaths(cwd, cfg)
	for _, dir := range []string{paths.OverridesDir, paths.StateDir, paths.AppDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// The app directory is a Python package; hook override targets
	// resolve inside it.
	appInit := filepath.Join(paths.AppDir, "__init__.py")
	if _, err := os.Stat(appInit); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(appInit, []byte(""), 0644); err != nil {
			return fmt.Errorf("failed to create app package: %w", err)
		}
	}

	// Keep tool state out of git.
	stateIgnore := filepath.Join(paths.StateDir, ".gitignore")
	if err := os.WriteFile(stateIgnore, []byte("# crmdev artifacts (local-only)\n*\n"), 0644); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	// Seed a project .gitignore only when none exists; an existing one
	// belongs to the user.
	rootIgnore := filepath.Join(cwd, ".gitignore")
	if _, err := os.Stat(rootIgnore); errors.Is(err, os.ErrNotExist) {
		content := []byte("/build/\n/.crmdev/\nnode_modules/\n")
		if err := os.WriteFile(rootIgnore, content, 0644); err != nil {
			return fmt.Errorf("failed to create project .gitignore: %w", err)
		}
	} else {
		PrintInfo("Existing .gitignore left untouched; make sure it covers /build/ and /.crmdev/")
	}

	PrintSuccess(fmt.Sprintf("Initialized crmdev project at %s", cwd))
	fmt.Println()
	PrintInfo("Next steps:")
	fmt.Println("  1. Point trees.upstream in crmdev.yaml at the vendor frontend")
	fmt.Println("  2. Track a file:        crmdev track <path>")
	fmt.Println("  3. Build the tree:      crmdev build")
	fmt.Println("  4. Rebuild on changes:  crmdev watch")

	return nil
}
