package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"mend/internal/config"
	"mend/internal/engine"
	"mend/internal/logging"
)

var (
	engineOnce   sync.Once
	sharedEngine *engine.Engine
	engineErr    error
)

// getEngine returns a shared engine instance, lazily initialized on
// first use. The --room flag overrides the configured room.
func getEngine(root string, logger *logging.Logger) (*engine.Engine, error) {
	engineOnce.Do(func() {
		cfg, err := config.Load(root)
		if err != nil {
			logger.Warn("Failed to load config, using defaults", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = config.DefaultConfig()
		}
		if roomFlag != "" {
			cfg.Room.ID = roomFlag
		}

		eng, err := engine.Open(root, cfg, logger)
		if err != nil {
			engineErr = fmt.Errorf("failed to open engine: %w", err)
			return
		}
		sharedEngine = eng
	})

	return sharedEngine, engineErr
}

// mustGetEngine returns the shared engine or exits on error
func mustGetEngine(root string, logger *logging.Logger) *engine.Engine {
	eng, err := getEngine(root, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	return eng
}

// mustGetRoot returns the project root or exits on error
func mustGetRoot() string {
	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return root
}

// newContext creates a context for command execution
func newContext() context.Context {
	return context.Background()
}

// newLogger creates a logger for CLI commands
func newLogger() *logging.Logger {
	format := logging.HumanFormat
	if jsonOutput {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  logging.InfoLevel,
		Output: os.Stderr,
	})
}

// printResult renders a command result as JSON or indented JSON on stdout
func printResult(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	if !jsonOutput {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
