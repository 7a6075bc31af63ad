package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lethang507/crmdev/internal/manifest"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show project status",
	Long:  `Display the project trees, the override count and the last build.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := eng.Status(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		fmt.Printf("Project: %s\n", result.Root)
		fmt.Printf("App: %s\n", result.AppName)

		upstream := result.UpstreamDir
		if !result.UpstreamExists {
			upstream += " (missing)"
		} else if result.UpstreamRef != "" {
			upstream += fmt.Sprintf(" @ %s", shortRef(result.UpstreamRef))
		}
		fmt.Printf("Upstream: %s\n", upstream)
		fmt.Printf("Overrides: %s (%d files)\n", result.OverridesDir, result.OverrideFiles)

		build := result.BuildDir
		if !result.BuildExists {
			build += " (not built)"
		}
		fmt.Printf("Build: %s\n", build)

		if result.LastBuild != nil {
			m := result.LastBuild
			fmt.Printf("\nLast build:\n")
			fmt.Printf("  ID: %s\n", m.BuildID)
			fmt.Printf("  Result: %s\n", m.Result)
			fmt.Printf("  Finished: %s\n", m.FinishedAt.Format(time.RFC3339))
			fmt.Printf("  Files: %d written, %d overridden\n", m.Files.Written, len(m.Overridden))
			if m.Result == manifest.ResultFailed {
				fmt.Printf("  Failure: %s\n", m.Failure)
			}
		}
		return nil
	},
}

// shortRef abbreviates a git commit hash for display.
func shortRef(ref string) string {
	if len(ref) > 12 {
		return ref[:12]
	}
	return ref
}
