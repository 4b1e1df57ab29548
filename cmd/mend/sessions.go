package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List debug sessions in the room",
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 50, "Maximum sessions to list")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	sessions, err := eng.Debug.ListSessions(sessionsLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(sessions)
	}
	if len(sessions) == 0 {
		fmt.Println("No debug sessions recorded.")
		return nil
	}
	for _, s := range sessions {
		state := "open"
		if s.Resolved() {
			state = "resolved"
		}
		fmt.Printf("%s  %-8s %s\n", s.ID, state, s.TriggerAction)
	}
	return nil
}
