// Package watchcmder provides the watch command, which follows the client
// log and delivers every completed match and draft to the configured sinks.
package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/arenatapes/api"
	"github.com/papercomputeco/arenatapes/cmd/arenatapes/logpath"
	"github.com/papercomputeco/arenatapes/cmd/arenatapes/pipeline"
	"github.com/papercomputeco/arenatapes/pkg/config"
	"github.com/papercomputeco/arenatapes/pkg/watcher"
)

type WatchCommander struct {
	logPath      string
	tail         bool
	pollInterval string
	apiEnabled   bool
	apiListen    string
	sinkFlags    pipeline.SinkFlags

	jsonLogs  bool
	logFile   bool
	debug     bool
	configDir string

	logger *slog.Logger
}

const watchLongDesc string = `Watch the MTG Arena client log.

Follows Player.log, reconstructs matches and drafts from the JSON it
contains, and delivers each completed one to every configured sink.
Completed objects are also kept in memory for the diagnostics API.

The log location is taken from --log, then ARENATAPES_LOG, then the
platform default install location.

Examples:
  arenatapes watch
  arenatapes watch --log ~/Player.log --json-dir ./replays
  arenatapes watch --sqlite arenatapes.db --api
  arenatapes watch --stream-provider kafka --stream-target localhost:9092`

const watchShortDesc string = "Watch the client log and deliver completed matches and drafts"

var watchFlagKeys = append([]string{
	config.FlagLog,
	config.FlagTail,
	config.FlagPollInterval,
	config.FlagAPI,
	config.FlagAPIListen,
}, pipeline.SinkFlagKeys...)

func NewWatchCmd() *cobra.Command {
	cmder := &WatchCommander{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := pipeline.LoadConfig(cmd, cmder.configDir, watchFlagKeys)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cfg)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagLog, &cmder.logPath)
	config.AddBoolFlag(cmd, config.Flags, config.FlagTail, &cmder.tail)
	config.AddStringFlag(cmd, config.Flags, config.FlagPollInterval, &cmder.pollInterval)
	config.AddBoolFlag(cmd, config.Flags, config.FlagAPI, &cmder.apiEnabled)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.apiListen)
	cmder.sinkFlags.Register(cmd)
	cmd.Flags().BoolVar(&cmder.jsonLogs, "json-logs", false, "Write JSON logs even on a terminal")
	cmd.Flags().BoolVar(&cmder.logFile, "log-file", false, "Also append JSON logs to arenatapes.log in the config directory")

	return cmd
}

func (c *WatchCommander) run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.logger = pipeline.NewLogger(os.Stdout, c.debug, c.jsonLogs)
	if c.logFile {
		teed, f, err := pipeline.TeeToFile(c.logger, c.configDir, c.debug)
		if err != nil {
			return err
		}
		defer f.Close()
		c.logger = teed
	}

	path, err := logpath.ResolveLogPath(cfg.Log.Path)
	if err != nil {
		return err
	}

	p, err := pipeline.Open(ctx, cfg, c.logger, 0)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			c.logger.Error("closing sinks", "error", err)
		}
	}()

	w := watcher.New(path, c.logger)
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("log rotation watch stopped", "error", err)
		}
	}()

	orch, err := p.Orchestrator(path, cfg.Log.Tail, w.Rotations())
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, p.Memory, p.Collector, p.Stats, c.logger)
		go func() {
			if err := apiServer.Run(); err != nil {
				errChan <- fmt.Errorf("API server error: %w", err)
			}
		}()
		defer func() {
			if err := apiServer.Shutdown(); err != nil {
				c.logger.Warn("shutting down API server", "error", err)
			}
		}()
	}

	c.logger.Info("watching client log", "path", path, "tail", cfg.Log.Tail, "poll_interval", cfg.Log.PollInterval)

	orchDone := make(chan error, 1)
	go func() {
		orchDone <- orch.Run(ctx)
	}()

	select {
	case err := <-errChan:
		stop()
		<-orchDone
		return err
	case err := <-orchDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	snap := p.Stats.Snapshot()
	c.logger.Info("stopped watching",
		"objects", snap.Objects,
		"replays", snap.ReplaysEmitted,
		"drafts", snap.DraftsEmitted,
		"parse_failures", snap.ParseFailures,
	)
	return nil
}
