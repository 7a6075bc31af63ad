package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// hooksCmd is the parent command for hook registry management.
var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the declarative hook registry",
	Long: `Render and validate the hook registry defined in crmdev.yaml.

The registry maps entities to override classes, server methods to
override functions, and website routes to rewrite targets. Rendering
writes it into the override app for the backend framework to load.`,
}

var hooksRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the registry into the override app",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := eng.RenderHooks(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess(fmt.Sprintf("Rendered %s (%d bytes)", result.Path, result.Size))
		return nil
	},
}

var hooksCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that override targets resolve",
	Long: `Check that every override target in the registry points at a module
and symbol that exist in this project. Targets living in other apps
are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := eng.CheckHooks(ctx)
		if err != nil {
			return err
		}

		report := result.Report
		if jsonOutput {
			return outputJSON(report)
		}

		if len(report.Skipped) > 0 {
			PrintEmptyState(fmt.Sprintf("%s outside this app skipped",
				PrintCount(len(report.Skipped), "target", "targets")))
		}

		if report.OK() {
			PrintSuccess(fmt.Sprintf("%s resolve", PrintCount(report.Checked, "target", "targets")))
			return nil
		}

		for _, issue := range report.Issues {
			PrintError(fmt.Sprintf("%s: %s", issue.Target, issue.Problem))
		}
		return fmt.Errorf("%d hook targets failed to resolve", len(report.Issues))
	},
}

func init() {
	hooksCmd.AddCommand(hooksRenderCmd)
	hooksCmd.AddCommand(hooksCheckCmd)
}
