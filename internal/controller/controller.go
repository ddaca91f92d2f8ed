package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/daemonctl/internal/daemon"
	"github.com/loykin/daemonctl/internal/history"
	"github.com/loykin/daemonctl/internal/metrics"
	"github.com/loykin/daemonctl/internal/pidfile"
	"github.com/loykin/daemonctl/internal/procsys"
)

// Expected terminal conditions, reported rather than raised where the
// operation still produced a usable status.
var (
	// ErrStartTimeout means the poll window closed with no pid recorded.
	ErrStartTimeout = errors.New("daemon did not record a pid within the start window")
	// ErrCrashedOnStart means crash evidence appeared during the start poll.
	ErrCrashedOnStart = errors.New("daemon crashed during start")
	// ErrStillRunning means the stop escalation was exhausted with the
	// process alive. The pid record is deliberately left in place.
	ErrStillRunning = errors.New("daemon still running after kill escalation")
)

// Design constants. Both loops must degrade to a clearly reported
// terminal status rather than hang, so neither is caller-configurable.
const (
	defaultStartPollAttempts = 5
	defaultStartPollInterval = time.Second
	defaultStopAttempts      = 5
	defaultStopKillAttempts  = 2 // trailing attempts that use KILL
	defaultStopInterval      = time.Second
	defaultStopInitialWait   = 200 * time.Millisecond
	defaultStopSettleWait    = time.Second
)

// Controller drives one daemon between stopped and running using OS
// signals and timed polling of the pid record. All collaborators are
// injected so multiple controllers can coexist in one process and
// tests can substitute a fake process backend.
type Controller struct {
	d       daemon.Daemon
	rec     *pidfile.Store
	sys     procsys.System
	det     procsys.Detacher
	log     *slog.Logger
	journal history.Journal // optional
	runArgs []string        // argv passed to the detached re-exec

	startPollAttempts int
	startPollInterval time.Duration
	stopAttempts      int
	stopKillAttempts  int
	stopInterval      time.Duration
	stopInitialWait   time.Duration
	stopSettleWait    time.Duration

	tailLines int
}

// Option adjusts optional collaborators at construction.
type Option func(*Controller)

// WithJournal attaches a lifecycle history journal. Writes to it are
// best-effort and never fail an operation.
func WithJournal(j history.Journal) Option {
	return func(c *Controller) { c.journal = j }
}

// WithRunArgs sets the argv the detach re-exec invokes; it must resolve
// to the daemon-side runner in the same binary.
func WithRunArgs(args []string) Option {
	return func(c *Controller) { c.runArgs = args }
}

// New builds a Controller for d. sys and det supply the platform
// backend; log must not be nil. Lifecycle counters are registered with
// the default registry so every transition the controller drives is
// counted in-process; registration is idempotent across controllers.
func New(d daemon.Daemon, sys procsys.System, det procsys.Detacher, log *slog.Logger, opts ...Option) *Controller {
	_ = metrics.Register(prometheus.DefaultRegisterer)
	c := &Controller{
		d:   d,
		rec: pidfile.New(d.ProcessFilePath(), sys),
		sys: sys,
		det: det,
		log: log,

		startPollAttempts: defaultStartPollAttempts,
		startPollInterval: defaultStartPollInterval,
		stopAttempts:      defaultStopAttempts,
		stopKillAttempts:  defaultStopKillAttempts,
		stopInterval:      defaultStopInterval,
		stopInitialWait:   defaultStopInitialWait,
		stopSettleWait:    defaultStopSettleWait,

		tailLines: 20,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Record exposes the pid record store, primarily for the daemon-side
// runner which must write its own pid through the same path rules.
func (c *Controller) Record() *pidfile.Store { return c.rec }

// Start brings the daemon up. Already-running is an idempotent no-op; a
// stale record is auto-healed. After the detach, Start polls the pid
// record with a bounded budget because fork + session setup + the pid
// write are asynchronous relative to the launcher, which must not block
// on a daemon that fails instantly.
func (c *Controller) Start(ctx context.Context, out io.Writer) error {
	switch c.rec.Status() {
	case pidfile.StateRunning:
		pid, _ := c.rec.Recall()
		c.log.Info("daemon already running", "name", c.d.Name(), "pid", pid)
		fmt.Fprintf(out, "%s already running (pid %d)\n", c.d.Name(), pid)
		return nil
	case pidfile.StateUnknown:
		pid, _ := c.rec.Recall()
		c.log.Warn("stale pid record, discarding", "name", c.d.Name(), "pid", pid, "path", c.rec.Path())
		c.record(ctx, history.EventStaleRecord, pid, "discarded before start")
		if err := c.rec.Clear(); err != nil {
			return fmt.Errorf("clear stale pid record: %w", err)
		}
	}

	if err := c.d.Prefork(); err != nil {
		return fmt.Errorf("prefork: %w", err)
	}
	if err := c.d.MarkLog(); err != nil {
		c.log.Warn("mark log failed", "name", c.d.Name(), "error", err)
	}

	childPid, err := c.det.Detach(c.d.LogFilePath(), c.runArgs)
	if err != nil {
		return fmt.Errorf("detach: %w", err)
	}
	c.log.Debug("detached daemon process", "name", c.d.Name(), "child_pid", childPid)

	for i := 0; i < c.startPollAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.startPollInterval):
		}
		if pid, ok := c.rec.Recall(); ok {
			c.log.Info("daemon started", "name", c.d.Name(), "pid", pid)
			fmt.Fprintf(out, "%s started (pid %d)\n", c.d.Name(), pid)
			metrics.IncStart(c.d.Name())
			c.record(ctx, history.EventStarted, pid, "")
			return nil
		}
		if c.d.Crashed() {
			c.log.Error("daemon crashed during start", "name", c.d.Name())
			fmt.Fprintf(out, "%s crashed during start\n", c.d.Name())
			metrics.IncCrashDetected(c.d.Name())
			c.record(ctx, history.EventCrashDetected, 0, "during start poll")
			_ = c.d.TailLog(out, c.tailLines)
			return ErrCrashedOnStart
		}
	}
	c.log.Error("daemon did not start in time", "name", c.d.Name(), "attempts", c.startPollAttempts)
	fmt.Fprintf(out, "%s did not start within %s\n", c.d.Name(),
		time.Duration(c.startPollAttempts)*c.startPollInterval)
	return ErrStartTimeout
}

// Status reports the current state. Purely observational: it never
// mutates the pid record. An unconfirmable pid is disambiguated via the
// daemon's crash-evidence heuristic before being surfaced.
func (c *Controller) Status(ctx context.Context, out io.Writer) error {
	switch c.rec.Status() {
	case pidfile.StateRunning:
		pid, _ := c.rec.Recall()
		fmt.Fprintf(out, "%s running (pid %d)\n", c.d.Name(), pid)
	case pidfile.StateStopped:
		fmt.Fprintf(out, "%s stopped\n", c.d.Name())
	case pidfile.StateUnknown:
		pid, _ := c.rec.Recall()
		if c.d.Crashed() {
			fmt.Fprintf(out, "%s crashed (recorded pid %d not running)\n", c.d.Name(), pid)
			metrics.IncCrashDetected(c.d.Name())
			c.record(ctx, history.EventCrashDetected, pid, "status check")
			_ = c.d.TailLog(out, c.tailLines)
		} else {
			fmt.Fprintf(out, "%s state unknown (recorded pid %d not running)\n", c.d.Name(), pid)
		}
	}
	return nil
}

// Stop brings the daemon down via the escalation loop: INT to the
// process group once, a short grace, then up to stopAttempts signals a
// second apart, the last stopKillAttempts of which are KILL. A process
// ignoring INT may still honor TERM, and one ignoring both must be
// forcibly killed. If the process survives everything, the record is
// left intact for the operator.
func (c *Controller) Stop(ctx context.Context, out io.Writer) error {
	if !c.rec.Exists() {
		fmt.Fprintf(out, "%s not found -- is it running?\n", c.d.Name())
		return nil
	}
	pid, ok := c.rec.Recall()
	if !ok || !c.sys.Alive(pid) {
		fmt.Fprintf(out, "%s not running, may have crashed\n", c.d.Name())
		_ = c.d.TailLog(out, c.tailLines)
		if c.d.Crashed() {
			metrics.IncCrashDetected(c.d.Name())
			c.record(ctx, history.EventCrashDetected, pid, "stop on dead process")
		}
		// Dead either way; clear so the next start is clean.
		_ = c.rec.Clear()
		return nil
	}

	c.log.Info("stopping daemon", "name", c.d.Name(), "pid", pid)
	c.signalGroup(ctx, pid, procsys.Interrupt)

	if err := c.sleep(ctx, c.stopInitialWait); err != nil {
		return err
	}
	if c.sys.Alive(pid) {
		if err := c.sleep(ctx, c.stopSettleWait); err != nil {
			return err
		}
	}

	for i := 0; i < c.stopAttempts; i++ {
		if !c.sys.Alive(pid) {
			break
		}
		sig := procsys.Terminate
		if i >= c.stopAttempts-c.stopKillAttempts {
			sig = procsys.Kill
		}
		c.signalGroup(ctx, pid, sig)
		if err := c.sleep(ctx, c.stopInterval); err != nil {
			return err
		}
	}

	if c.sys.Alive(pid) {
		c.log.Error("daemon survived kill escalation", "name", c.d.Name(), "pid", pid)
		fmt.Fprintf(out, "%s still running (pid %d)\n", c.d.Name(), pid)
		metrics.IncEscalationExhausted(c.d.Name())
		c.record(ctx, history.EventStillRunning, pid, "escalation exhausted")
		return ErrStillRunning
	}

	if err := c.rec.Clear(); err != nil {
		c.log.Warn("failed to clear pid record", "name", c.d.Name(), "error", err)
	}
	c.log.Info("daemon stopped", "name", c.d.Name(), "pid", pid)
	fmt.Fprintf(out, "%s stopped\n", c.d.Name())
	metrics.IncStop(c.d.Name())
	c.record(ctx, history.EventStopped, pid, "")
	return nil
}

// Restart is stop, cleanup, start, status run sequentially. There is no
// atomicity across the boundary: failing between stop and start leaves
// the daemon stopped, which is an acceptable degraded outcome. A stop
// that exhausted escalation aborts the restart so a live daemon's
// record is never cleared out from under it.
func (c *Controller) Restart(ctx context.Context, out io.Writer) error {
	if err := c.Stop(ctx, out); err != nil {
		return err
	}
	c.rec.Cleanup()
	if err := c.Start(ctx, out); err != nil {
		return err
	}
	return c.Status(ctx, out)
}

func (c *Controller) signalGroup(ctx context.Context, pid int, sig procsys.Signal) {
	c.log.Debug("signaling process group", "name", c.d.Name(), "pid", pid, "signal", sig.String())
	if err := c.sys.SignalGroup(pid, sig); err != nil {
		// Expected race with a concurrently dying group; the loop
		// re-checks liveness before every next step.
		c.log.Debug("signal delivery failed", "name", c.d.Name(), "pid", pid, "error", err)
	}
	metrics.IncStopSignal(c.d.Name(), sig.String())
	c.record(ctx, history.EventSignaled, pid, sig.String())
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (c *Controller) record(ctx context.Context, t history.EventType, pid int, detail string) {
	if c.journal == nil {
		return
	}
	ev := history.Event{Daemon: c.d.Name(), Type: t, PID: pid, Detail: detail, OccurredAt: time.Now().UTC()}
	if err := c.journal.Append(ctx, ev); err != nil {
		c.log.Debug("journal append failed", "error", err)
	}
}
