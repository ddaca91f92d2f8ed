//go:build !windows

package procsys

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// SelfDetacher re-executes the current binary with the given args in a
// new session. Setsid detaches the child from the controlling terminal
// and makes it a session (and process-group) leader, which is what lets
// Stop signal the whole group via kill(-pid). This is the exec-based
// equivalent of classic double-fork daemonization: the launcher exits
// and the child is reparented to init.
type SelfDetacher struct{}

func (SelfDetacher) Detach(logPath string, args []string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	// #nosec G204
	cmd := exec.Command(executable, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	null, err := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer func() { _ = null.Close() }()
	cmd.Stdin = null

	// Stdout/stderr go straight to the daemon log, append-only and
	// unbuffered, so crash output from before the child finishes its
	// own setup is not lost.
	if logPath != "" {
		// #nosec G304
		logF, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return 0, fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = logF.Close() }()
		cmd.Stdout = logF
		cmd.Stderr = logF
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon process: %w", err)
	}
	pid := cmd.Process.Pid
	// Release rather than Wait: the child outlives us and must not
	// become our zombie; Setsid already reparents it on our exit.
	_ = cmd.Process.Release()
	return pid, nil
}
