package ipc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// AcquirePID claims the PID file at path for this process. Two bars sharing
// a control socket would fight over it, so a second acquire fails while the
// recorded process is alive. A record left behind by a crash is detected
// with signal 0 and silently replaced.
func AcquirePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ipc: create PID directory: %w", err)
	}

	if pid, err := ReadPID(path); err == nil {
		if IsProcessAlive(pid) {
			return fmt.Errorf("ipc: bar already running (PID %d)", pid)
		}
		os.Remove(path)
	}

	// Write-then-rename, so a reader never sees a partial PID.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("ipc: write temp PID file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ipc: rename PID file: %w", err)
	}
	return nil
}

// ReleasePID drops the claim. Releasing a claim that is already gone is not
// an error.
func ReleasePID(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ipc: remove PID file: %w", err)
	}
	return nil
}

// ReadPID returns the PID recorded at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("ipc: read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("ipc: parse PID file: %w", err)
	}
	return pid, nil
}

// IsProcessAlive reports whether pid names a running process this user may
// signal. Signal 0 performs the existence check without delivering
// anything.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
