package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lethang507/crmdev/internal/engine"
)

var diffShowIdentical bool

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Classify override files against upstream",
	Long: `Show how each override file relates to its upstream counterpart.

Every override is added (no upstream counterpart), modified (differs
from upstream) or identical. A file is flagged as drifted when the
upstream side changed since the last build recorded it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := eng.Diff(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		return formatDiffOutput(result)
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffShowIdentical, "all", false, "Also list overrides identical to upstream")
}

// formatDiffOutput formats the diff result for display.
func formatDiffOutput(result *engine.DiffResult) error {
	initColors()

	if len(result.Files) == 0 {
		PrintEmptyState("No override files")
		return nil
	}

	var added, modified, identical, drifted int
	for _, file := range result.Files {
		switch file.Status {
		case "added":
			added++
		case "modified":
			modified++
		case "identical":
			identical++
		}
		if file.Drifted {
			drifted++
		}

		if file.Status == "identical" && !diffShowIdentical && !file.Drifted {
			continue
		}
		printDiffLine(file)
	}

	fmt.Println()
	fmt.Printf("%s: %d added, %d modified, %d identical",
		PrintCount(len(result.Files), "override", "overrides"), added, modified, identical)
	if drifted > 0 {
		_, _ = errorColor.Printf(", %d drifted", drifted)
	}
	fmt.Println()

	return nil
}

func printDiffLine(file engine.DiffFileInfo) {
	switch file.Status {
	case "added":
		_, _ = successColor.Printf("A\t%s", file.Path)
	case "modified":
		_, _ = warningColor.Printf("M\t%s", file.Path)
	default:
		_, _ = dimColor.Printf("=\t%s", file.Path)
	}
	if file.Drifted {
		_, _ = errorColor.Print("  (upstream changed)")
	}
	fmt.Println()
}
