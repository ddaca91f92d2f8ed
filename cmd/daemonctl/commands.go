package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loykin/daemonctl/internal/config"
	"github.com/loykin/daemonctl/internal/controller"
	"github.com/loykin/daemonctl/internal/history"
	"github.com/loykin/daemonctl/internal/logger"
	"github.com/loykin/daemonctl/internal/logtail"
	"github.com/loykin/daemonctl/internal/pidfile"
	"github.com/loykin/daemonctl/internal/procsys"
	"github.com/loykin/daemonctl/internal/runner"
)

// GlobalFlags holds persistent flags shared by all verbs.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
}

// LogsFlags holds flags for the logs command.
type LogsFlags struct {
	Lines  int
	Follow bool
}

// HistoryFlags holds flags for the history command.
type HistoryFlags struct {
	Limit int
}

func buildRoot() *cobra.Command {
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:          "daemonctl",
		Short:        "Start, stop, restart and inspect a managed background daemon",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "daemonctl.toml", "path to daemon config (TOML)")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		createStartCommand(flags),
		createStopCommand(flags),
		createRestartCommand(flags),
		createStatusCommand(flags),
		createLogsCommand(flags),
		createHistoryCommand(flags),
		createRunCommand(flags),
	)
	return root
}

// newController wires the real platform backend and optional journal
// behind a Controller built from the config file. The returned closer
// releases the journal.
func newController(flags *GlobalFlags) (*controller.Controller, func(), error) {
	fc, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewCLI(flags.Verbose)
	d := fc.Daemon()

	opts := []controller.Option{
		controller.WithRunArgs([]string{"run", "--config", flags.ConfigPath}),
	}
	closer := func() {}
	if fc.HistoryDB != "" {
		j, err := history.Open(fc.HistoryDB)
		if err != nil {
			log.Warn("history journal unavailable", "path", fc.HistoryDB, "error", err)
		} else if err := j.EnsureSchema(context.Background()); err != nil {
			log.Warn("history schema setup failed", "error", err)
			_ = j.Close()
		} else {
			opts = append(opts, controller.WithJournal(j))
			closer = func() { _ = j.Close() }
		}
	}

	c := controller.New(d, procsys.OS{}, procsys.SelfDetacher{}, log, opts...)
	return c, closer, nil
}

func createStartCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon if it is not already running",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := newController(flags)
			if err != nil {
				return err
			}
			defer done()
			return c.Start(cmd.Context(), os.Stdout)
		},
	}
}

func createStopCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon, escalating signals as needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := newController(flags)
			if err != nil {
				return err
			}
			defer done()
			return c.Stop(cmd.Context(), os.Stdout)
		},
	}
}

func createRestartCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop the daemon then start it again",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := newController(flags)
			if err != nil {
				return err
			}
			defer done()
			return c.Restart(cmd.Context(), os.Stdout)
		},
	}
}

func createStatusCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the daemon is running, stopped, crashed or unknown",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := newController(flags)
			if err != nil {
				return err
			}
			defer done()
			return c.Status(cmd.Context(), os.Stdout)
		},
	}
}

func createLogsCommand(flags *GlobalFlags) *cobra.Command {
	lf := &LogsFlags{}
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			d := fc.Daemon()
			if err := logtail.Tail(d.LogFilePath(), lf.Lines, os.Stdout); err != nil {
				return err
			}
			if !lf.Follow {
				return nil
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			err = logtail.Follow(ctx, d.LogFilePath(), os.Stdout)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&lf.Lines, "lines", "n", logtail.DefaultLines, "number of trailing lines to print")
	cmd.Flags().BoolVarP(&lf.Follow, "follow", "f", false, "keep streaming appended log lines")
	return cmd
}

func createHistoryCommand(flags *GlobalFlags) *cobra.Command {
	hf := &HistoryFlags{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent lifecycle events from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			if fc.HistoryDB == "" {
				return fmt.Errorf("no history_db configured in %s", flags.ConfigPath)
			}
			j, err := history.Open(fc.HistoryDB)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()
			if err := j.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			events, err := j.Recent(cmd.Context(), fc.Name, hf.Limit)
			if err != nil {
				return err
			}
			for _, ev := range events {
				detail := ev.Detail
				if detail != "" {
					detail = " " + detail
				}
				fmt.Printf("%s  %-15s pid=%d%s\n", ev.OccurredAt.Local().Format("2006-01-02 15:04:05"), ev.Type, ev.PID, detail)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&hf.Limit, "limit", "n", 50, "maximum number of events to list")
	return cmd
}

// createRunCommand is the hidden daemon-side entry the detach re-exec
// invokes. It never runs from a user's shell in normal operation.
func createRunCommand(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:    "run",
		Hidden: true,
		Short:  "Run the daemon workload in the current process (internal)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			d := fc.Daemon()
			rec := pidfile.New(d.ProcessFilePath(), procsys.OS{})
			return runner.Run(d, rec, fc.MetricsListen)
		},
	}
}
