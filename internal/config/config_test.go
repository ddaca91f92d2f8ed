package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daemonctl.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
name = "web"
command = "python app.py"
workdir = "/srv/web"
env = ["PORT=8080", "MODE=prod"]
pidfile = "/run/web.pid"
dir = "/var/lib/daemonctl"
metrics_listen = "127.0.0.1:9300"
history_db = "/var/lib/daemonctl/history.db"

[log]
path = "/var/log/web.log"
max_size_mb = 5
max_backups = 2
compress = true
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Name != "web" || fc.Command != "python app.py" {
		t.Fatalf("basic fields: %+v", fc)
	}
	if len(fc.Env) != 2 || fc.Env[1] != "MODE=prod" {
		t.Fatalf("env: %v", fc.Env)
	}
	if fc.Log.Path != "/var/log/web.log" || fc.Log.MaxSizeMB != 5 || !fc.Log.Compress {
		t.Fatalf("log config: %+v", fc.Log)
	}
	if fc.MetricsListen != "127.0.0.1:9300" {
		t.Fatalf("metrics listen: %q", fc.MetricsListen)
	}

	d := fc.Daemon()
	if d.ProcessFilePath() != "/run/web.pid" {
		t.Fatalf("pid path: %q", d.ProcessFilePath())
	}
	if d.LogFilePath() != "/var/log/web.log" {
		t.Fatalf("log path: %q", d.LogFilePath())
	}
}

func TestLoadDefaultsDirWhenUnset(t *testing.T) {
	path := writeConfig(t, `
name = "web"
command = "sleep 60"
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Dir == "" {
		t.Fatalf("dir not defaulted")
	}
	d := fc.Daemon()
	if !strings.HasSuffix(d.ProcessFilePath(), filepath.Join(fc.Dir, "web.pid")) {
		t.Fatalf("derived pid path %q not under %q", d.ProcessFilePath(), fc.Dir)
	}
}

func TestLoadRejectsMissingName(t *testing.T) {
	path := writeConfig(t, `command = "sleep 60"`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("err = %v, want name-is-required", err)
	}
}

func TestLoadRejectsMissingCommand(t *testing.T) {
	path := writeConfig(t, `name = "web"`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "command is required") {
		t.Fatalf("err = %v, want command-is-required", err)
	}
}

func TestLoadRejectsBadName(t *testing.T) {
	path := writeConfig(t, `
name = "bad name/with stuff"
command = "sleep 60"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("accepted name with separators")
	}
}

func TestLoadRejectsBadEnvEntry(t *testing.T) {
	path := writeConfig(t, `
name = "web"
command = "sleep 60"
env = ["NOEQUALS"]
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "KEY=VALUE") {
		t.Fatalf("err = %v, want env format error", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("load accepted missing file")
	}
}
