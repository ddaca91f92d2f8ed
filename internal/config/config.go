package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/loykin/daemonctl/internal/daemon"
	"github.com/loykin/daemonctl/internal/logger"
)

// FileConfig is the top-level TOML structure.
//
//	name = "worker"
//	command = "python worker.py"
//	workdir = "/srv/worker"
//	env = ["QUEUE=jobs"]
//	metrics_listen = "127.0.0.1:9300"
//	history_db = "/var/lib/daemonctl/history.db"
//
//	[log]
//	path = "/var/log/worker.log"
//	max_size_mb = 10
type FileConfig struct {
	Name          string        `mapstructure:"name"`
	Command       string        `mapstructure:"command"`
	WorkDir       string        `mapstructure:"workdir"`
	Env           []string      `mapstructure:"env"`
	PIDFile       string        `mapstructure:"pidfile"`
	Dir           string        `mapstructure:"dir"` // base for derived pid/log paths
	Log           logger.Config `mapstructure:"log"`
	MetricsListen string        `mapstructure:"metrics_listen"`
	HistoryDB     string        `mapstructure:"history_db"`
}

// Load reads and validates a TOML config file.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := fc.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if fc.Dir == "" {
		fc.Dir = DefaultStateDir()
	}
	return &fc, nil
}

func (fc *FileConfig) validate() error {
	if strings.TrimSpace(fc.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(fc.Name, " \t\n/\\") {
		return fmt.Errorf("name %q contains invalid characters", fc.Name)
	}
	if strings.TrimSpace(fc.Command) == "" {
		return fmt.Errorf("command is required")
	}
	for i, kv := range fc.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("env[%d] %q is invalid, must be KEY=VALUE", i, kv)
		}
	}
	return nil
}

// Daemon builds the default command daemon from the file config.
func (fc *FileConfig) Daemon() *daemon.CommandDaemon {
	return &daemon.CommandDaemon{
		ProcName: fc.Name,
		Command:  fc.Command,
		WorkDir:  fc.WorkDir,
		Env:      append([]string(nil), fc.Env...),
		PIDFile:  fc.PIDFile,
		Log:      fc.Log,
		Dir:      fc.Dir,
	}
}

// DefaultStateDir is where derived pid and log paths land when the
// config does not pin a directory.
func DefaultStateDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".daemonctl")
	}
	return filepath.Join(os.TempDir(), "daemonctl")
}
