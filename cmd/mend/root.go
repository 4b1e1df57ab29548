package main

import (
	"mend/internal/version"

	"github.com/spf13/cobra"
)

var (
	// roomFlag overrides the configured room for a single invocation
	roomFlag string

	// jsonOutput switches command output to JSON
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "mend",
	Short: "Mend - change-impact analysis and self-healing",
	Long: `Mend maintains a dependency graph of project artifacts, predicts the
blast radius of proposed changes, turns high-risk predictions into ordered
remediation plans, and diffs expected behavior contracts against what
actually happened.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("mend version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&roomFlag, "room", "",
		"Room ID to operate in (default: configured room)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
}
