package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lethang507/crmdev/internal/engine"
)

var untrackCmd = &cobra.Command{
	Use:   "untrack <path>...",
	Short: "Remove files from the override tree",
	Long: `Remove files from the override tree so the upstream version is used
again after the next build. Paths are relative to the override tree
root. The upstream tree is never touched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := eng.Untrack(ctx, &engine.UntrackRequest{Paths: args})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if len(result.Removed) > 0 {
			PrintSuccess(fmt.Sprintf("Untracked %s", PrintCount(len(result.Removed), "file", "files")))
			PrintList(result.Removed, 1)
		}
		for _, path := range result.NotFound {
			PrintWarning(fmt.Sprintf("no override for %s", path))
		}
		return nil
	},
}
