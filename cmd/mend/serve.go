package main

import (
	"fmt"
	"os"

	"mend/internal/auth"
	"mend/internal/config"
	"mend/internal/daemon"
	"mend/internal/logging"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mend HTTP daemon",
	Long:  "Serves the room's operations over HTTP until interrupted.",
	RunE:  runServe,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running daemon",
	RunE:  runServeStop,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a daemon is running",
	RunE:  runServeStatus,
}

var serveTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate an API token and store its hash in the config",
	RunE:  runServeToken,
}

func init() {
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveTokenCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	logger := logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.InfoLevel,
		Output: os.Stderr,
	})

	eng := mustGetEngine(root, logger)
	defer eng.Close()

	d := daemon.New(root, eng.Config, eng, logger)
	if err := d.Start(); err != nil {
		return err
	}

	d.Wait()
	return d.Stop()
}

func runServeStop(cmd *cobra.Command, args []string) error {
	if err := daemon.StopRemote(mustGetRoot()); err != nil {
		return err
	}
	fmt.Println("Daemon stopped.")
	return nil
}

func runServeStatus(cmd *cobra.Command, args []string) error {
	running, pid, err := daemon.IsRunning(mustGetRoot())
	if err != nil {
		return err
	}
	if running {
		fmt.Printf("Daemon running (PID: %d)\n", pid)
	} else {
		fmt.Println("Daemon not running.")
	}
	return nil
}

func runServeToken(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	token, _, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	hash, err := auth.HashToken(token)
	if err != nil {
		return err
	}

	cfg.Daemon.Auth.Enabled = true
	cfg.Daemon.Auth.TokenHash = hash
	if err := cfg.Save(root); err != nil {
		return err
	}

	// The raw token is shown once; only the hash is stored.
	fmt.Printf("Token: %s\n", token)
	fmt.Println("Store it somewhere safe. Auth is now enabled in the config.")
	return nil
}
