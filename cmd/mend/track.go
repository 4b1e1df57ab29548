package main

import (
	"encoding/json"
	"fmt"

	"mend/internal/graph"

	"github.com/spf13/cobra"
)

var (
	trackRelationship string
	trackMetadata     string
)

var trackCmd = &cobra.Command{
	Use:   "track <sourceType:sourceId> <targetType:targetId>",
	Short: "Track a dependency edge between two artifacts",
	Long: `Records a directed dependency from source to target. Coupling strength
is derived from the relationship type and metadata flags (isCritical,
frequency, isOptional).

Examples:
  mend track file:src/App.tsx file:src/lib/api.ts --rel imports
  mend track component:Checkout api:/v1/orders --rel calls --metadata '{"isCritical":true}'`,
	Args: cobra.ExactArgs(2),
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().StringVar(&trackRelationship, "rel", "depends_on",
		"Relationship type: imports, calls, references, extends, implements, styles, depends_on")
	trackCmd.Flags().StringVar(&trackMetadata, "metadata", "",
		"Edge metadata as JSON (e.g. '{\"isCritical\":true}')")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	sourceType, sourceID, err := splitNodeArg(args[0])
	if err != nil {
		return err
	}
	targetType, targetID, err := splitNodeArg(args[1])
	if err != nil {
		return err
	}

	var metadata map[string]interface{}
	if trackMetadata != "" {
		if err := json.Unmarshal([]byte(trackMetadata), &metadata); err != nil {
			return fmt.Errorf("invalid --metadata JSON: %w", err)
		}
	}

	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	edge, err := eng.Graph.TrackDependency(newContext(), graph.TrackRequest{
		SourceType:       sourceType,
		SourceID:         sourceID,
		TargetType:       targetType,
		TargetID:         targetID,
		RelationshipType: graph.RelationshipType(trackRelationship),
		Metadata:         metadata,
	})
	if err != nil {
		return err
	}

	return printResult(edge)
}

// splitNodeArg parses a "type:id" argument. The id may itself contain
// colons (API routes, URLs), so only the first colon splits.
func splitNodeArg(arg string) (string, string, error) {
	for i := 0; i < len(arg); i++ {
		if arg[i] == ':' {
			if i == 0 || i == len(arg)-1 {
				break
			}
			return arg[:i], arg[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("expected <type>:<id>, got %q", arg)
}
