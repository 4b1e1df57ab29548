package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healCmd = &cobra.Command{
	Use:   "heal <captureId>",
	Short: "Initiate healing for a recorded capture",
	Long: `Generates a remediation plan from the capture's predictions and executes
it. Healing runs one plan at a time; if a plan is already executing the
request is queued and completes in submission order.`,
	Args: cobra.ExactArgs(1),
	RunE: runHeal,
}

var healActionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List healing actions in the room",
	RunE:  runHealActions,
}

var healActionsLimit int

func init() {
	healActionsCmd.Flags().IntVar(&healActionsLimit, "limit", 50, "Maximum actions to list")
	healCmd.AddCommand(healActionsCmd)
	rootCmd.AddCommand(healCmd)
}

func runHeal(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	resp, err := eng.HealCapture(newContext(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(resp)
	}
	printHealingResponse(resp)
	return nil
}

func runHealActions(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	actions, err := eng.Actions.ListByRoom(eng.Config.Room.ID, healActionsLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(actions)
	}
	if len(actions) == 0 {
		fmt.Println("No healing actions recorded.")
		return nil
	}
	for _, a := range actions {
		fmt.Printf("%s  %-22s %-10s %s\n", a.ID, a.ActionType, a.Status, a.Description)
	}
	return nil
}
