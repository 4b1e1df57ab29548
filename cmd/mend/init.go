package main

import (
	"fmt"
	"os"
	"path/filepath"

	"mend/internal/config"
	"mend/internal/rooms"

	"github.com/spf13/cobra"
)

var (
	initForce     bool
	initWithRooms bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mend configuration",
	Long:  "Creates a .mend/ directory with default configuration in the current project root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false,
		"Force reinitialization (removes existing .mend directory)")
	initCmd.Flags().BoolVar(&initWithRooms, "with-rooms", false,
		"Also create an example ROOMS.toml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	dataDir := filepath.Join(root, config.DataDirName)
	if _, err := os.Stat(dataDir); err == nil {
		if !initForce {
			// Idempotent: already initialized is success
			fmt.Println("mend already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(dataDir, "config.json"))
			fmt.Println("\nRun 'mend init --force' to reinitialize.")
			return nil
		}
		if err := os.RemoveAll(dataDir); err != nil {
			return fmt.Errorf("failed to remove existing %s directory: %w", config.DataDirName, err)
		}
	}

	cfg := config.DefaultConfig()
	if roomFlag != "" {
		cfg.Room.ID = roomFlag
	}
	if err := cfg.Save(root); err != nil {
		return err
	}

	if initWithRooms {
		roomsPath := filepath.Join(root, rooms.DeclarationFile)
		if _, err := os.Stat(roomsPath); os.IsNotExist(err) {
			if err := rooms.CreateExampleFile(roomsPath); err != nil {
				return err
			}
			fmt.Printf("Created %s\n", rooms.DeclarationFile)
		}
	}

	fmt.Println("mend initialized.")
	fmt.Printf("Configuration at: %s\n", filepath.Join(dataDir, "config.json"))
	fmt.Printf("Room: %s\n", cfg.Room.ID)
	return nil
}
