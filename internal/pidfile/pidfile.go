package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// State classifies daemon liveness as derived from the pid record.
type State string

const (
	// StateRunning means a record exists and the recorded pid is alive.
	StateRunning State = "running"
	// StateStopped means no record exists.
	StateStopped State = "stopped"
	// StateUnknown means a record exists but the pid cannot be confirmed
	// alive: a crash, an external kill, or a stale record.
	StateUnknown State = "unknown"
)

// Prober answers whether a pid currently identifies a live process.
// The real implementation sends signal 0; tests substitute a table.
type Prober interface {
	Alive(pid int) bool
}

// Store persists a single pid at a well-known path and classifies
// liveness. The launcher is the only writer; the daemon process writes
// exactly once, right after detaching. The record is never locked:
// correctness relies on write-after-fork/read-before-signal sequencing
// and on Clear/Store being idempotent.
type Store struct {
	path   string
	prober Prober
}

// New returns a Store over the record file at path.
func New(path string, p Prober) *Store {
	return &Store{path: path, prober: p}
}

func (s *Store) Path() string { return s.path }

// Recall returns the recorded pid, or false if the record is absent or
// malformed. Read errors and garbage content are treated as absence so
// an unreadable record can never block recovery.
func (s *Store) Recall() (int, bool) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return 0, false
	}
	first, _, _ := strings.Cut(string(b), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Status reads the record and probes the pid.
// Absent record -> stopped; alive pid -> running; otherwise unknown.
func (s *Store) Status() State {
	if _, err := os.Stat(s.path); err != nil {
		return StateStopped
	}
	pid, ok := s.Recall()
	if !ok {
		return StateUnknown
	}
	if s.prober.Alive(pid) {
		return StateRunning
	}
	return StateUnknown
}

// Running reports whether a pid is recorded and currently alive.
func (s *Store) Running() bool {
	pid, ok := s.Recall()
	return ok && s.prober.Alive(pid)
}

// Exists reports whether the record file is present at all, regardless
// of whether its content parses. Stop uses this to distinguish "never
// started" from "recorded but dead".
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Store writes pid to the record atomically (temp file + rename),
// creating parent directories as needed. Overwrites any prior value.
func (s *Store) Store(pid int) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".pid-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	_, werr := tmp.WriteString(strconv.Itoa(pid) + "\n")
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(name)
		if werr != nil {
			return werr
		}
		return cerr
	}
	if err := os.Rename(name, s.path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}

// Clear removes the record. Idempotent: already-absent is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Cleanup is the post-stop hook; equivalent to Clear and tolerant of
// the record already being gone.
func (s *Store) Cleanup() {
	_ = s.Clear()
}
