package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lethang507/crmdev/internal/config"
	"github.com/lethang507/crmdev/internal/engine"
	"github.com/lethang507/crmdev/internal/fsops"
	"github.com/lethang507/crmdev/internal/hash"
	"github.com/lethang507/crmdev/internal/watcher"
)

var watchSkipSteps bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild automatically when overrides change",
	Long: `Build once, then watch the override tree and crmdev.yaml and rebuild
on every change. Changes arriving close together trigger a single
rebuild. Editing crmdev.yaml reloads the configuration; moving the
trees themselves requires a restart.

Press Ctrl-C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipSteps, "skip-steps", false, "Merge the trees without running the build steps")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadProject()
	if err != nil {
		return err
	}
	eng := buildEngine(cfg, root)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(eng.Paths(), cfg.Watch, hash.NewSHA256Hasher(), newLogger())
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	rebuild(ctx, eng)
	seedWatcherHashes(w, eng.Paths())

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	PrintInfo("Watching for changes. Press Ctrl-C to stop.")

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			PrintInfo("Stopped watching.")
			return nil

		case batch, ok := <-w.Batches():
			if !ok {
				return nil
			}
			for _, event := range batch {
				PrintInfo(fmt.Sprintf("  %s %s", event.Op, event.Path))
			}
			if touchesConfig(batch) {
				newCfg, newRoot, err := loadProject()
				if err != nil {
					PrintError(fmt.Sprintf("config reload failed: %v", err))
					continue
				}
				cfg, root = newCfg, newRoot
				eng = buildEngine(cfg, root)
			}
			rebuild(ctx, eng)
		}
	}
}

// rebuild runs one build and reports the outcome without stopping the
// watch loop on failure.
func rebuild(ctx context.Context, eng *engine.Engine) {
	result, err := eng.Build(ctx, &engine.BuildRequest{SkipSteps: watchSkipSteps})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		printFailedSteps(result)
		PrintError(fmt.Sprintf("build failed: %v", err))
		return
	}

	m := result.Manifest
	PrintSuccess(fmt.Sprintf("Built %s (%d overridden)",
		PrintCount(m.Files.Written, "file", "files"), len(m.Overridden)))
}

// seedWatcherHashes primes the watcher with current content hashes so a
// save that does not change a file is suppressed from the start.
func seedWatcherHashes(w *watcher.Watcher, paths config.Paths) {
	fs := fsops.NewRealFS()
	hasher := hash.NewSHA256Hasher()

	if rels, err := fs.WalkFiles(paths.OverridesDir); err == nil {
		for _, rel := range rels {
			abs := filepath.Join(paths.OverridesDir, filepath.FromSlash(rel))
			if data, err := fs.ReadFile(abs); err == nil {
				w.SetHash(abs, hasher.HashBytes(data))
			}
		}
	}

	if data, err := fs.ReadFile(paths.ConfigFile); err == nil {
		w.SetHash(paths.ConfigFile, hasher.HashBytes(data))
	}
}

func touchesConfig(batch []watcher.Event) bool {
	for _, event := range batch {
		if event.Path == config.ProjectConfigFile {
			return true
		}
	}
	return false
}
