package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lethang507/crmdev/internal/engine"
)

var cleanAll bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the build tree",
	Long: `Remove the derived build tree.

With --all, the .crmdev state directory and the build manifest are
removed as well. The upstream and override trees are never touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := eng.Clean(ctx, &engine.CleanRequest{All: cleanAll})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if len(result.Removed) == 0 {
			PrintInfo("Nothing to remove")
			return nil
		}
		for _, path := range result.Removed {
			PrintSuccess(fmt.Sprintf("Removed %s", path))
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Also remove the .crmdev state directory")
}
