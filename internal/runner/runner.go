// Package runner is the daemon side of the detach: it executes inside
// the re-exec'd session-leader process and owns everything that must
// happen before and around the workload's Run.
package runner

import (
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/loykin/daemonctl/internal/daemon"
	"github.com/loykin/daemonctl/internal/metrics"
	"github.com/loykin/daemonctl/internal/pidfile"
	"github.com/prometheus/client_golang/prometheus"
)

// Run performs the daemon process setup sequence, then invokes the
// workload under a guard. Order matters: the pid is recorded first so
// the launcher's poll can observe it, then the process drops terminal
// ties (umask, chdir, stdio rebind), then the workload runs.
//
// The pid record is created here and never touched again by this
// process; only the launcher deletes it.
func Run(d daemon.Daemon, rec *pidfile.Store, metricsAddr string) error {
	// This process lives for the daemon's whole lifetime and owns the
	// scrape endpoint, so its registry carries the start it represents.
	_ = metrics.Register(prometheus.DefaultRegisterer)

	if err := rec.Store(os.Getpid()); err != nil {
		return fmt.Errorf("record pid: %w", err)
	}
	metrics.IncStart(d.Name())

	setUmask()

	if err := os.Chdir(d.WorkingDirectory()); err != nil {
		return fmt.Errorf("chdir %s: %w", d.WorkingDirectory(), err)
	}

	if err := bindStdio(d.LogFilePath()); err != nil {
		return fmt.Errorf("bind stdio: %w", err)
	}

	if metricsAddr != "" {
		serveMetrics(metricsAddr)
	}

	// The stopping banner is written no matter how Run ends; the crash
	// banner only on failure. Neither may propagate to the launcher,
	// which has long since detached.
	defer daemon.WriteStoppingBanner(os.Stderr)

	err := runGuarded(d)
	if err != nil {
		daemon.WriteCrashBanner(os.Stderr, err, nil)
	}
	return err
}

func runGuarded(d daemon.Daemon) (err error) {
	defer func() {
		if r := recover(); r != nil {
			daemon.WriteCrashBanner(os.Stderr, r, debug.Stack())
			err = fmt.Errorf("workload panicked: %v", r)
		}
	}()
	return d.Run()
}

// serveMetrics exposes lifecycle counters for the lifetime of the
// daemon process. Listen failures are reported to the log but do not
// stop the workload.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "metrics listener failed: %v\n", err)
		}
	}()
}
