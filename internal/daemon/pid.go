package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// PIDFile manages the daemon PID file
type PIDFile struct {
	path string
}

// NewPIDFile creates a new PID file manager
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Acquire creates the PID file with the current process ID
func (p *PIDFile) Acquire() error {
	running, pid, err := p.IsRunning()
	if err != nil {
		return err
	}
	if running {
		return fmt.Errorf("daemon is already running (PID: %d)", pid)
	}

	if err := p.removeStale(); err != nil {
		return err
	}

	content := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(p.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Release removes the PID file
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// IsRunning checks if a daemon is currently running.
// Returns (running, pid, error).
func (p *PIDFile) IsRunning() (bool, int, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Invalid PID file, treat as not running
		return false, 0, nil
	}

	if processExists(pid) {
		return true, pid, nil
	}
	return false, pid, nil
}

func (p *PIDFile) removeStale() error {
	running, _, err := p.IsRunning()
	if err != nil {
		return err
	}
	if !running {
		if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// processExists checks if a process with the given PID exists.
// Signal 0 sends nothing but reports whether the process is alive.
func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
