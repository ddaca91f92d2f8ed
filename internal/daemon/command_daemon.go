package daemon

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/loykin/daemonctl/internal/logger"
	"github.com/loykin/daemonctl/internal/logtail"
)

// CommandDaemon is the default Daemon: it runs a configured shell
// command as the workload. Paths default under Dir when not set
// explicitly: <dir>/<name>.pid and <dir>/<name>.log.
type CommandDaemon struct {
	ProcName string        // daemon identity
	Command  string        // workload command (shell syntax allowed)
	WorkDir  string        // working directory for the daemon process
	Env      []string      // extra KEY=VALUE pairs for the workload
	PIDFile  string        // explicit pid record path, overrides Dir
	Log      logger.Config // log path and rotation settings
	Dir      string        // base directory for derived paths
}

func (d *CommandDaemon) Name() string { return d.ProcName }

func (d *CommandDaemon) WorkingDirectory() string {
	if d.WorkDir != "" {
		return d.WorkDir
	}
	return "/"
}

func (d *CommandDaemon) LogFilePath() string {
	if d.Log.Path != "" {
		return d.Log.Path
	}
	return filepath.Join(d.Dir, d.ProcName+".log")
}

func (d *CommandDaemon) ProcessFilePath() string {
	if d.PIDFile != "" {
		return d.PIDFile
	}
	return filepath.Join(d.Dir, d.ProcName+".pid")
}

// Prefork validates the workload before any detach happens, so obvious
// misconfiguration fails in the launcher where the user can see it.
func (d *CommandDaemon) Prefork() error {
	if strings.TrimSpace(d.Command) == "" {
		return fmt.Errorf("daemon %q has no command configured", d.ProcName)
	}
	if d.WorkDir != "" {
		fi, err := os.Stat(d.WorkDir)
		if err != nil {
			return fmt.Errorf("workdir %s: %w", d.WorkDir, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("workdir %s is not a directory", d.WorkDir)
		}
	}
	return os.MkdirAll(filepath.Dir(d.LogFilePath()), 0o750)
}

// MarkLog writes the starting banner through the rotating writer, so an
// oversized log is rotated before the new run begins appending.
func (d *CommandDaemon) MarkLog() error {
	cfg := d.Log
	cfg.Path = d.LogFilePath()
	w := cfg.Writer()
	if w == nil {
		return nil
	}
	WriteStartingBanner(w)
	return w.Close()
}

// Run executes the configured command and waits for it. Stdout/stderr
// are inherited: by the time Run is called the daemon process has
// already been pointed at the log file.
func (d *CommandDaemon) Run() error {
	cmd := buildCommand(d.Command)
	if d.WorkDir != "" {
		cmd.Dir = d.WorkDir
	}
	if len(d.Env) > 0 {
		cmd.Env = append(os.Environ(), d.Env...)
	}
	cmd.Stdin = nil
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Crashed reports whether the log contains a crash banner after the
// most recent starting banner. Best-effort: an unreadable log means no
// evidence, not a crash.
func (d *CommandDaemon) Crashed() bool {
	b, err := os.ReadFile(d.LogFilePath())
	if err != nil {
		return false
	}
	if i := bytes.LastIndex(b, []byte(startingMarker)); i >= 0 {
		b = b[i:]
	}
	return bytes.Contains(b, []byte(crashedMarker))
}

func (d *CommandDaemon) TailLog(w io.Writer, n int) error {
	return logtail.Tail(d.LogFilePath(), n, w)
}
