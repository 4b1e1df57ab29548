// Package daemon provides the always-on HTTP service mode.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"mend/internal/config"
	"mend/internal/engine"
	"mend/internal/logging"
	"mend/internal/version"
)

// Daemon serves the engine's operations over HTTP for one room
type Daemon struct {
	root   string
	config *config.Config
	engine *engine.Engine
	server *http.Server
	pid    *PIDFile
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startedAt time.Time
	mu        sync.RWMutex
}

// State describes a running daemon
type State struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startedAt"`
	Bind      string    `json:"bind"`
	Port      int       `json:"port"`
	RoomID    string    `json:"roomId"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Healing   bool      `json:"healingBusy"`
}

// New creates a daemon over an already opened engine
func New(root string, cfg *config.Config, eng *engine.Engine, logger *logging.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		root:   root,
		config: cfg,
		engine: eng,
		logger: logger.With(map[string]interface{}{"component": "daemon"}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start acquires the PID file and begins serving
func (d *Daemon) Start() error {
	d.pid = NewPIDFile(PIDPath(d.root))
	if err := d.pid.Acquire(); err != nil {
		return err
	}

	d.mu.Lock()
	d.startedAt = time.Now()
	d.mu.Unlock()

	d.server = d.setupServer()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		addr := d.server.Addr
		d.logger.Info("HTTP server listening", map[string]interface{}{
			"addr": addr,
			"room": d.config.Room.ID,
		})
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.Error("HTTP server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	d.logger.Info("Daemon started", map[string]interface{}{
		"pid":     os.Getpid(),
		"version": version.Version,
	})
	return nil
}

// Stop gracefully shuts the daemon down
func (d *Daemon) Stop() error {
	d.logger.Info("Stopping daemon", nil)
	d.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			d.logger.Warn("HTTP server shutdown error", map[string]interface{}{"error": err.Error()})
		}
	}
	d.wg.Wait()

	if d.pid != nil {
		if err := d.pid.Release(); err != nil {
			d.logger.Warn("Failed to release PID file", map[string]interface{}{"error": err.Error()})
		}
	}

	d.logger.Info("Daemon stopped", nil)
	return nil
}

// Wait blocks until the daemon receives a shutdown signal
func (d *Daemon) Wait() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		d.logger.Info("Received signal", map[string]interface{}{"signal": sig.String()})
	case <-d.ctx.Done():
	}
}

// State returns the current daemon state
func (d *Daemon) State() *State {
	d.mu.RLock()
	startedAt := d.startedAt
	d.mu.RUnlock()

	return &State{
		PID:       os.Getpid(),
		StartedAt: startedAt,
		Bind:      d.config.Daemon.Bind,
		Port:      d.config.Daemon.Port,
		RoomID:    d.config.Room.ID,
		Version:   version.Version,
		Uptime:    formatDuration(time.Since(startedAt)),
		Healing:   d.engine.Healing.Busy(),
	}
}

// PIDPath returns the PID file location for a project root
func PIDPath(root string) string {
	return filepath.Join(root, config.DataDirName, "daemon.pid")
}

// IsRunning checks whether a daemon is running for the given root
func IsRunning(root string) (bool, int, error) {
	return NewPIDFile(PIDPath(root)).IsRunning()
}

// StopRemote sends SIGTERM to a running daemon and waits for it to exit
func StopRemote(root string) error {
	pid := NewPIDFile(PIDPath(root))
	running, processID, err := pid.IsRunning()
	if err != nil {
		return err
	}
	if !running {
		return fmt.Errorf("daemon is not running")
	}

	process, err := os.FindProcess(processID)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send signal: %w", err)
	}

	timeout := time.After(30 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return fmt.Errorf("timeout waiting for daemon to stop")
		case <-ticker.C:
			running, _, _ := pid.IsRunning()
			if !running {
				return nil
			}
		}
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
