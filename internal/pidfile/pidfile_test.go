package pidfile

import (
	"os"
	"path/filepath"
	"testing"
)

// tableProber answers liveness from a fixed set of pids.
type tableProber map[int]bool

func (p tableProber) Alive(pid int) bool { return p[pid] }

func TestStatusAbsentRecordIsStopped(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "missing.pid"), tableProber{})
	if st := s.Status(); st != StateStopped {
		t.Fatalf("status = %v, want stopped", st)
	}
	if _, ok := s.Recall(); ok {
		t.Fatalf("recall on absent record should report absence")
	}
	if s.Exists() {
		t.Fatalf("absent record reported as existing")
	}
}

func TestStoreRecallRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "nested", "dir", "d.pid"), tableProber{4242: true})
	if err := s.Store(4242); err != nil {
		t.Fatalf("store: %v", err)
	}
	pid, ok := s.Recall()
	if !ok || pid != 4242 {
		t.Fatalf("recall = (%d, %v), want (4242, true)", pid, ok)
	}
	if st := s.Status(); st != StateRunning {
		t.Fatalf("status = %v, want running", st)
	}
	if !s.Running() {
		t.Fatalf("running = false for alive recorded pid")
	}
}

func TestStoreOverwritesPriorValue(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "d.pid"), tableProber{2: true})
	if err := s.Store(1); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Store(2); err != nil {
		t.Fatalf("store overwrite: %v", err)
	}
	pid, ok := s.Recall()
	if !ok || pid != 2 {
		t.Fatalf("recall = (%d, %v), want (2, true)", pid, ok)
	}
}

func TestMalformedRecordTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "d.pid")
	for _, content := range []string{"", "garbage", "-5", "0", "12.7"} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		s := New(path, tableProber{})
		if _, ok := s.Recall(); ok {
			t.Fatalf("recall parsed malformed content %q", content)
		}
		// File exists but has no usable pid: unknown, not stopped.
		if st := s.Status(); st != StateUnknown {
			t.Fatalf("status for %q = %v, want unknown", content, st)
		}
	}
}

func TestStatusDeadPidIsUnknown(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "d.pid"), tableProber{})
	if err := s.Store(999); err != nil {
		t.Fatalf("store: %v", err)
	}
	if st := s.Status(); st != StateUnknown {
		t.Fatalf("status = %v, want unknown", st)
	}
	if s.Running() {
		t.Fatalf("running = true for dead pid")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "d.pid"), tableProber{})
	if err := s.Clear(); err != nil {
		t.Fatalf("clear on absent record: %v", err)
	}
	if err := s.Store(77); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if st := s.Status(); st != StateStopped {
		t.Fatalf("status after clear = %v, want stopped", st)
	}
	// Cleanup is the same operation, tolerant of absence.
	s.Cleanup()
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "d.pid"), tableProber{})
	if err := s.Store(10); err != nil {
		t.Fatalf("store: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "d.pid" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
