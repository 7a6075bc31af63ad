package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lethang507/crmdev/internal/engine"
)

var trackForce bool

var trackCmd = &cobra.Command{
	Use:   "track <path>...",
	Short: "Copy upstream files into the override tree",
	Long: `Copy files from the upstream tree into the override tree so they can
be customized. Paths are relative to the upstream tree root.

Existing overrides are left untouched unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := eng.Track(ctx, &engine.TrackRequest{
			Paths: args,
			Force: trackForce,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if len(result.Tracked) > 0 {
			PrintSuccess(fmt.Sprintf("Tracked %s", PrintCount(len(result.Tracked), "file", "files")))
			PrintList(result.Tracked, 1)
		}
		for _, path := range result.Skipped {
			PrintWarning(fmt.Sprintf("%s is already overridden (use --force to overwrite)", path))
		}
		if len(result.Missing) > 0 {
			for _, path := range result.Missing {
				PrintError(fmt.Sprintf("%s not found in upstream tree", path))
			}
			return fmt.Errorf("%d of %d paths not found in upstream tree", len(result.Missing), len(args))
		}
		return nil
	},
}

func init() {
	trackCmd.Flags().BoolVarP(&trackForce, "force", "f", false, "Overwrite existing overrides")
}
