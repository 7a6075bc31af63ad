package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lethang507/crmdev/internal/engine"
	"github.com/lethang507/crmdev/internal/manifest"
)

var (
	buildDryRun    bool
	buildSkipSteps bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Merge upstream and overrides, then run the build steps",
	Long: `Regenerate the build tree from the upstream and override trees.

The build tree is cleared, the upstream tree is copied in, the override
tree is copied on top (overrides win per path), and the configured
steps run inside the merged result. A failed build leaves the partial
tree in place for inspection.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		req := &engine.BuildRequest{
			DryRun:    buildDryRun,
			SkipSteps: buildSkipSteps,
		}

		result, err := eng.Build(ctx, req)
		if err != nil {
			printFailedSteps(result)
			return err
		}

		if jsonOutput {
			if result.DryRun {
				return outputJSON(result.Plan)
			}
			return outputJSON(result.Manifest)
		}

		if result.DryRun {
			PrintSection("Dry Run")
			PrintInfo(fmt.Sprintf("Would write %s (%d upstream, %d overrides)",
				PrintCount(result.Plan.Written(), "file", "files"),
				result.Plan.UpstreamFiles,
				result.Plan.OverrideFiles))
			if len(result.Plan.Overridden) > 0 {
				PrintSubsection("Overridden:")
				PrintList(result.Plan.Overridden, 1)
			}
			return nil
		}

		m := result.Manifest
		switch m.Result {
		case manifest.ResultMerged:
			PrintSuccess(fmt.Sprintf("Merged %s, steps skipped", PrintCount(m.Files.Written, "file", "files")))
		default:
			PrintSuccess(fmt.Sprintf("Built %s", PrintCount(m.Files.Written, "file", "files")))
		}
		PrintLabelValue("Build ID", m.BuildID)
		PrintLabelValue("Overridden", fmt.Sprintf("%d of %d upstream files", len(m.Overridden), m.Files.Upstream))
		for _, step := range m.Steps {
			if step.Skipped {
				PrintLabelValue(step.Name, "skipped")
				continue
			}
			PrintLabelValue(step.Name, fmt.Sprintf("ok (%s)", time.Duration(step.DurationMS)*time.Millisecond))
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Show what would be written without building")
	buildCmd.Flags().BoolVar(&buildSkipSteps, "skip-steps", false, "Merge the trees without running the build steps")
}

// printFailedSteps shows the captured output of any step that failed so
// the cause is visible without rerunning by hand.
func printFailedSteps(result *engine.BuildResult) {
	if result == nil {
		return
	}
	for _, step := range result.Steps {
		if step.OK() {
			continue
		}
		out := strings.TrimSpace(step.Stderr)
		if out == "" {
			out = strings.TrimSpace(step.Stdout)
		}
		if out == "" {
			continue
		}
		PrintError(fmt.Sprintf("step %s output:", step.Name))
		for _, line := range tailLines(out, 20) {
			fmt.Fprintf(os.Stderr, "  %s\n", line)
		}
	}
}

// tailLines returns the last n lines of text.
func tailLines(text string, n int) []string {
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
