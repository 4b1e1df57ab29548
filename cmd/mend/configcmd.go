package main

import (
	"mend/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(mustGetRoot())
	if err != nil {
		return err
	}
	// Never print the token hash
	cfg.Daemon.Auth.TokenHash = ""
	return printResult(cfg)
}
