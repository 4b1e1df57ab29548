package main

import (
	"fmt"

	"mend/internal/healing"
	"mend/internal/intent"

	"github.com/spf13/cobra"
)

var (
	captureTargetFile  string
	captureTargetAPI   string
	captureTargetModel string
)

var captureCmd = &cobra.Command{
	Use:   "capture <action>",
	Short: "Capture a user action and predict its impact",
	Long: `Classifies the free-text action, resolves its target artifact, runs
impact analysis, and persists the capture with its predictions. When
auto-heal is enabled and the risk reaches the room's threshold, healing
is initiated immediately.

Examples:
  mend capture "Rename UserProfile to ProfileCard" --file src/UserProfile.tsx
  mend capture "Delete the legacy billing endpoint" --api /v1/billing/charge`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringVar(&captureTargetFile, "file", "", "Target file the action concerns")
	captureCmd.Flags().StringVar(&captureTargetAPI, "api", "", "Target API route the action concerns")
	captureCmd.Flags().StringVar(&captureTargetModel, "model", "", "Target data model the action concerns")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	result, healResp, err := eng.CaptureUserAction(newContext(), args[0], intent.Context{
		TargetFile:  captureTargetFile,
		TargetAPI:   captureTargetAPI,
		TargetModel: captureTargetModel,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(map[string]interface{}{
			"capture":     result.Capture,
			"predictions": result.Predictions,
			"overallRisk": result.OverallRisk,
			"healing":     healResp,
		})
	}

	fmt.Printf("Captured %s (intent: %s, confidence: %.1f)\n",
		result.Capture.ID, result.Capture.Intent, result.Capture.Confidence)
	fmt.Printf("  Overall risk: %d/100\n", result.OverallRisk)
	for _, p := range result.Predictions {
		fmt.Printf("  [severity %d] %s\n", p.Severity, p.Description)
	}
	printHealingResponse(healResp)
	return nil
}

func printHealingResponse(resp *healing.Response) {
	if resp == nil {
		return
	}
	switch resp.Status {
	case healing.StatusQueued:
		fmt.Printf("  Healing queued at position %d\n", resp.Position)
	default:
		fmt.Printf("  Healing %s", resp.Status)
		if resp.Result != nil {
			fmt.Printf(" (%d actions completed, %d failed)",
				resp.Result.ActionsCompleted, resp.Result.ActionsFailed)
		}
		fmt.Println()
	}
}
