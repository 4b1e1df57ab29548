package main

import (
	"fmt"
	"path/filepath"

	"mend/internal/rooms"

	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List rooms declared in ROOMS.toml",
	RunE:  runRooms,
}

var roomsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example ROOMS.toml",
	RunE:  runRoomsInit,
}

func init() {
	roomsCmd.AddCommand(roomsInitCmd)
	rootCmd.AddCommand(roomsCmd)
}

func runRooms(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	declarations, err := rooms.Load(root, "")
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(declarations)
	}
	if len(declarations) == 0 {
		fmt.Println("No rooms declared. Run 'mend rooms init' to create an example ROOMS.toml.")
		return nil
	}
	for _, decl := range declarations {
		fmt.Printf("%s  %s", decl.ID, decl.Name)
		if decl.Owner != "" {
			fmt.Printf("  (%s)", decl.Owner)
		}
		fmt.Println()
		if t := decl.Thresholds; t != nil {
			fmt.Printf("  severity>=%d risk>=%d\n", t.SeverityThreshold, t.RiskThreshold)
		}
	}
	return nil
}

func runRoomsInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(mustGetRoot(), rooms.DeclarationFile)
	if err := rooms.CreateExampleFile(path); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", path)
	return nil
}
