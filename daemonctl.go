// Package daemonctl controls the lifecycle of a single long-running
// background process: start, stop, restart and status, coordinated
// through a persisted pid record.
package daemonctl

import (
	"log/slog"

	"github.com/loykin/daemonctl/internal/config"
	"github.com/loykin/daemonctl/internal/controller"
	"github.com/loykin/daemonctl/internal/daemon"
	"github.com/loykin/daemonctl/internal/history"
	"github.com/loykin/daemonctl/internal/logger"
	"github.com/loykin/daemonctl/internal/pidfile"
	"github.com/loykin/daemonctl/internal/procsys"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Controller = controller.Controller

type Daemon = daemon.Daemon

type CommandDaemon = daemon.CommandDaemon

type State = pidfile.State

const (
	StateRunning = pidfile.StateRunning
	StateStopped = pidfile.StateStopped
	StateUnknown = pidfile.StateUnknown
)

type Option = controller.Option

var (
	WithJournal = controller.WithJournal
	WithRunArgs = controller.WithRunArgs
)

type Journal = history.Journal

// OpenJournal opens a SQLite-backed lifecycle journal.
func OpenJournal(path string) (Journal, error) { return history.Open(path) }

// New builds a Controller for d against the real OS backend.
func New(d Daemon, log *slog.Logger, opts ...Option) *Controller {
	if log == nil {
		log = logger.NewCLI(false)
	}
	return controller.New(d, procsys.OS{}, procsys.SelfDetacher{}, log, opts...)
}

// LoadConfig reads a TOML daemon config and returns the configured
// command daemon.
func LoadConfig(path string) (*CommandDaemon, error) {
	fc, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return fc.Daemon(), nil
}
