package daemon

import "io"

// Daemon is the collaborator contract the controller consumes. The
// controller never reaches into the workload itself; everything it
// needs is behind these capabilities, so alternate daemons (and test
// fakes) can be dropped in at construction.
type Daemon interface {
	// Name identifies the daemon in logs and the history journal.
	Name() string
	// WorkingDirectory is chdir'd into by the daemon process.
	WorkingDirectory() string
	// LogFilePath is the daemon's append-only log; the launcher only
	// ever reads (tails) it.
	LogFilePath() string
	// ProcessFilePath is where the pid record lives.
	ProcessFilePath() string
	// Prefork runs launcher-side preparation before the detach.
	Prefork() error
	// MarkLog writes the start marker into the log before the detach,
	// rotating first if the log is oversized.
	MarkLog() error
	// Run executes the workload, once per daemon process lifetime.
	Run() error
	// Crashed inspects the log for crash evidence. It is a heuristic
	// with no correctness guarantee; the controller only uses it to
	// pick between "crashed" and "unknown" in reports.
	Crashed() bool
	// TailLog writes the last n log lines to w.
	TailLog(w io.Writer, n int) error
}
