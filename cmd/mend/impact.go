package main

import (
	"fmt"

	"mend/internal/impact"

	"github.com/spf13/cobra"
)

var impactChangeType string

var impactCmd = &cobra.Command{
	Use:   "impact <type:id>",
	Short: "Analyze the blast radius of a proposed change",
	Long: `Traverses the dependency graph from the given artifact, collecting
direct and transitive dependents, breaking-change predictions, and
suggestions.

Examples:
  mend impact file:src/lib/api.ts --change deletion
  mend impact api:/v1/orders --change modification`,
	Args: cobra.ExactArgs(1),
	RunE: runImpact,
}

func init() {
	impactCmd.Flags().StringVar(&impactChangeType, "change", "modification",
		"Change type: deletion, modification, rename")
	rootCmd.AddCommand(impactCmd)
}

func runImpact(cmd *cobra.Command, args []string) error {
	targetType, targetID, err := splitNodeArg(args[0])
	if err != nil {
		return err
	}

	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	analysis, err := eng.Impact.FindImpact(newContext(), targetType, targetID,
		impact.ChangeType(impactChangeType))
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(analysis)
	}

	fmt.Printf("Impact of %s on %s:%s\n", analysis.ChangeType, analysis.TargetType, analysis.TargetID)
	fmt.Printf("  Direct dependents:     %d\n", len(analysis.DirectDependencies))
	fmt.Printf("  Transitive dependents: %d\n", len(analysis.TransitiveDependencies))
	if len(analysis.BreakingChanges) > 0 {
		fmt.Println("  Breaking changes:")
		for _, bc := range analysis.BreakingChanges {
			fmt.Printf("    [severity %d] %s\n", bc.Severity, bc.Description)
		}
	}
	if len(analysis.Suggestions) > 0 {
		fmt.Println("  Suggestions:")
		for _, s := range analysis.Suggestions {
			fmt.Printf("    - %s\n", s)
		}
	}
	return nil
}
