package main

import (
	"encoding/json"
	"fmt"

	"mend/internal/debug"

	"github.com/spf13/cobra"
)

var (
	debugIntent   string
	debugExpected string
	debugActual   string
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Expected-vs-actual debugging sessions",
}

var debugStartCmd = &cobra.Command{
	Use:   "start <triggerAction>",
	Short: "Start a debug session with an expected behavior contract",
	Long: `Opens a session holding the expected execution path, outcome and
performance envelope for the given action.

Example:
  mend debug start "submit checkout" --intent "order placement" \
    --expected '{"executionPath":["validate","charge","confirm"],"outcome":{"status":"success"}}'`,
	Args: cobra.ExactArgs(1),
	RunE: runDebugStart,
}

var debugAnalyzeCmd = &cobra.Command{
	Use:   "analyze <sessionId>",
	Short: "Diff observed behavior against the session's contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebugAnalyze,
}

var debugResolveCmd = &cobra.Command{
	Use:   "resolve <sessionId>",
	Short: "Mark a debug session resolved",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebugResolve,
}

func init() {
	debugStartCmd.Flags().StringVar(&debugIntent, "intent", "", "User intent behind the action")
	debugStartCmd.Flags().StringVar(&debugExpected, "expected", "", "Expected behavior as JSON")
	debugAnalyzeCmd.Flags().StringVar(&debugActual, "actual", "", "Actual behavior as JSON")

	debugCmd.AddCommand(debugStartCmd)
	debugCmd.AddCommand(debugAnalyzeCmd)
	debugCmd.AddCommand(debugResolveCmd)
	rootCmd.AddCommand(debugCmd)
}

func runDebugStart(cmd *cobra.Command, args []string) error {
	var expected *debug.Behavior
	if debugExpected != "" {
		expected = &debug.Behavior{}
		if err := json.Unmarshal([]byte(debugExpected), expected); err != nil {
			return fmt.Errorf("invalid --expected JSON: %w", err)
		}
	}

	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	session, err := eng.Debug.StartSession(args[0], debugIntent, expected)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(session)
	}
	fmt.Printf("Debug session started: %s\n", session.ID)
	return nil
}

func runDebugAnalyze(cmd *cobra.Command, args []string) error {
	var actual *debug.Behavior
	if debugActual != "" {
		actual = &debug.Behavior{}
		if err := json.Unmarshal([]byte(debugActual), actual); err != nil {
			return fmt.Errorf("invalid --actual JSON: %w", err)
		}
	}

	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	result, err := eng.Debug.AnalyzeDiscrepancy(args[0], actual)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(result)
	}

	if len(result.Discrepancies) == 0 {
		fmt.Println("No discrepancies found.")
		return nil
	}
	for _, d := range result.Discrepancies {
		fmt.Printf("[%s] %s\n", d.Severity, d.Type)
		for _, m := range d.Messages {
			fmt.Printf("  %s\n", m)
		}
	}
	if len(result.SuggestedFixes) > 0 {
		fmt.Println("Suggested fixes:")
		for _, f := range result.SuggestedFixes {
			fmt.Printf("  %s: %s\n", f.DiscrepancyType, f.Description)
		}
	}
	return nil
}

func runDebugResolve(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	session, err := eng.Debug.ResolveSession(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(session)
	}
	fmt.Printf("Session %s resolved.\n", session.ID)
	return nil
}
