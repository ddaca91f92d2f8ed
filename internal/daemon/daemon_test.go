package daemon

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix-only test")
	}
}

func TestCommandDaemonDerivedPaths(t *testing.T) {
	d := &CommandDaemon{ProcName: "web", Command: "sleep 1", Dir: "/var/lib/ctl"}
	if got := d.ProcessFilePath(); got != "/var/lib/ctl/web.pid" {
		t.Fatalf("pid path = %q", got)
	}
	if got := d.LogFilePath(); got != "/var/lib/ctl/web.log" {
		t.Fatalf("log path = %q", got)
	}
	if got := d.WorkingDirectory(); got != "/" {
		t.Fatalf("default workdir = %q", got)
	}
}

func TestCommandDaemonExplicitPathsWin(t *testing.T) {
	d := &CommandDaemon{
		ProcName: "web",
		Command:  "sleep 1",
		Dir:      "/var/lib/ctl",
		PIDFile:  "/run/web.pid",
		WorkDir:  "/srv/web",
	}
	d.Log.Path = "/var/log/web.log"
	if got := d.ProcessFilePath(); got != "/run/web.pid" {
		t.Fatalf("pid path = %q", got)
	}
	if got := d.LogFilePath(); got != "/var/log/web.log" {
		t.Fatalf("log path = %q", got)
	}
	if got := d.WorkingDirectory(); got != "/srv/web" {
		t.Fatalf("workdir = %q", got)
	}
}

func TestPreforkRejectsMissingCommand(t *testing.T) {
	d := &CommandDaemon{ProcName: "web", Dir: t.TempDir()}
	if err := d.Prefork(); err == nil {
		t.Fatalf("prefork accepted empty command")
	}
}

func TestPreforkRejectsBadWorkdir(t *testing.T) {
	dir := t.TempDir()
	d := &CommandDaemon{ProcName: "web", Command: "sleep 1", Dir: dir, WorkDir: filepath.Join(dir, "nope")}
	if err := d.Prefork(); err == nil {
		t.Fatalf("prefork accepted nonexistent workdir")
	}
}

func TestMarkLogWritesStartingBanner(t *testing.T) {
	dir := t.TempDir()
	d := &CommandDaemon{ProcName: "web", Command: "sleep 1", Dir: dir}
	if err := d.MarkLog(); err != nil {
		t.Fatalf("marklog: %v", err)
	}
	b, err := os.ReadFile(d.LogFilePath())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), startingMarker) {
		t.Fatalf("starting banner missing: %q", string(b))
	}
}

func TestCrashedScansAfterMostRecentStart(t *testing.T) {
	dir := t.TempDir()
	d := &CommandDaemon{ProcName: "web", Command: "sleep 1", Dir: dir}

	var log bytes.Buffer
	WriteStartingBanner(&log)
	WriteCrashBanner(&log, "first run died", []byte("stack\n"))
	WriteStartingBanner(&log)
	WriteStoppingBanner(&log)
	if err := os.WriteFile(d.LogFilePath(), log.Bytes(), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}
	// Crash evidence belongs to the previous run only.
	if d.Crashed() {
		t.Fatalf("stale crash from earlier run reported")
	}

	WriteCrashBanner(&log, "second run died", nil)
	if err := os.WriteFile(d.LogFilePath(), log.Bytes(), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}
	if !d.Crashed() {
		t.Fatalf("crash after latest start not detected")
	}
}

func TestCrashedUnreadableLogMeansNoEvidence(t *testing.T) {
	d := &CommandDaemon{ProcName: "web", Command: "sleep 1", Dir: t.TempDir()}
	if d.Crashed() {
		t.Fatalf("missing log treated as crash evidence")
	}
}

func TestTailLogDumpsTrailingLines(t *testing.T) {
	dir := t.TempDir()
	d := &CommandDaemon{ProcName: "web", Command: "sleep 1", Dir: dir}
	content := "one\ntwo\nthree\nfour\n"
	if err := os.WriteFile(d.LogFilePath(), []byte(content), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}
	var out bytes.Buffer
	if err := d.TailLog(&out, 2); err != nil {
		t.Fatalf("taillog: %v", err)
	}
	if out.String() != "three\nfour\n" {
		t.Fatalf("tail = %q", out.String())
	}
}

func TestBuildCommandPlainArgs(t *testing.T) {
	requireUnix(t)
	cmd := buildCommand("sleep 5")
	if len(cmd.Args) != 2 || cmd.Args[1] != "5" {
		t.Fatalf("args = %v", cmd.Args)
	}
	if strings.Contains(cmd.Path, "sh") {
		t.Fatalf("plain command should not be shell-wrapped: %v", cmd.Path)
	}
}

func TestBuildCommandMetacharactersUseShell(t *testing.T) {
	requireUnix(t)
	cmd := buildCommand("echo hi > /tmp/x")
	if cmd.Path != "/bin/sh" || cmd.Args[1] != "-c" {
		t.Fatalf("metacharacter command not shell-wrapped: %v", cmd.Args)
	}
}

func TestBuildCommandExplicitShellNotDoubleWrapped(t *testing.T) {
	requireUnix(t)
	cmd := buildCommand("sh -c 'echo hi; sleep 1'")
	if cmd.Path != "/bin/sh" {
		t.Fatalf("path = %q", cmd.Path)
	}
	if got := cmd.Args[2]; got != "echo hi; sleep 1" {
		t.Fatalf("inner script = %q", got)
	}
}

func TestBuildCommandEmptyFallsBackToTrue(t *testing.T) {
	requireUnix(t)
	cmd := buildCommand("   ")
	if cmd.Path != "/bin/true" {
		t.Fatalf("path = %q", cmd.Path)
	}
}
