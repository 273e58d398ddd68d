// Package pipeline assembles the pieces shared by the watch and backfill
// commands: effective config, logger, diagnostics, sinks, and the delivery
// pool.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/arenatapes/cmd/arenatapes/sinkset"
	"github.com/papercomputeco/arenatapes/pkg/config"
	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
	"github.com/papercomputeco/arenatapes/pkg/dotdir"
	"github.com/papercomputeco/arenatapes/pkg/ingest"
	"github.com/papercomputeco/arenatapes/pkg/logger"
	"github.com/papercomputeco/arenatapes/pkg/sink"
	"github.com/papercomputeco/arenatapes/pkg/sink/inmemory"
	"github.com/papercomputeco/arenatapes/pkg/worker"
)

// StatsVar is the expvar name the counters are published under.
const StatsVar = "arenatapes"

// LogFileName is the file TeeToFile appends to inside the config directory.
const LogFileName = "arenatapes.log"

// SinkFlags holds the sink and stream flags shared by commands that deliver.
type SinkFlags struct {
	JSONDir        string
	SQLite         string
	Postgres       string
	ClickHouse     string
	ClickHouseDB   string
	RPCTarget      string
	StreamProvider string
	StreamTarget   string
	StreamTopic    string
	MaxErrors      uint
}

// SinkFlagKeys are the registry keys Register adds.
var SinkFlagKeys = []string{
	config.FlagJSONDir,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagClickHouse,
	config.FlagClickHouseDB,
	config.FlagRPCTarget,
	config.FlagStreamProvider,
	config.FlagStreamTarget,
	config.FlagStreamTopic,
	config.FlagMaxErrors,
}

// Register adds the sink flags to cmd.
func (f *SinkFlags) Register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagJSONDir, &f.JSONDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &f.SQLite)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &f.Postgres)
	config.AddStringFlag(cmd, config.Flags, config.FlagClickHouse, &f.ClickHouse)
	config.AddStringFlag(cmd, config.Flags, config.FlagClickHouseDB, &f.ClickHouseDB)
	config.AddStringFlag(cmd, config.Flags, config.FlagRPCTarget, &f.RPCTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagStreamProvider, &f.StreamProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStreamTarget, &f.StreamTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagStreamTopic, &f.StreamTopic)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxErrors, &f.MaxErrors)
}

// LoadConfig resolves the effective configuration for cmd: flags named by
// keys override ARENATAPES_* environment variables, which override
// config.toml in configDir.
func LoadConfig(cmd *cobra.Command, configDir string, keys []string) (*config.Config, error) {
	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// NewLogger writes to w, colorized when w is a terminal and JSON otherwise.
// jsonLogs forces JSON.
func NewLogger(w io.Writer, debug, jsonLogs bool) *slog.Logger {
	format := logger.FormatJSON
	if f, ok := w.(*os.File); ok && !jsonLogs && term.IsTerminal(int(f.Fd())) {
		format = logger.FormatPretty
	}
	return logger.New(
		logger.WithWriter(w),
		logger.WithDebug(debug),
		logger.WithFormat(format),
	)
}

// TeeToFile returns a logger that writes to log and also appends JSON records
// with source locations to LogFileName in the config directory. The returned
// closer closes the file.
func TeeToFile(log *slog.Logger, configDir string, debug bool) (*slog.Logger, io.Closer, error) {
	path, err := dotdir.NewManager().Path(configDir, LogFileName)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithWriter(f),
		logger.WithFormat(logger.FormatJSON),
		logger.WithDebug(debug),
		logger.WithSource(true),
	)
	return logger.Multi(log, file), f, nil
}

// Pipeline is everything between an orchestrator and the sinks.
type Pipeline struct {
	Config    *config.Config
	Logger    *slog.Logger
	Stats     *diagnostics.Stats
	Collector *diagnostics.Collector
	Memory    *inmemory.Store
	Sinks     *sink.Set
	Pool      *worker.Pool
}

// Open builds the sinks described by cfg and starts the delivery pool.
// A zero queueSize keeps the pool default.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger, queueSize uint) (*Pipeline, error) {
	if log == nil {
		log = logger.Nop()
	}

	p := &Pipeline{
		Config:    cfg,
		Logger:    log,
		Stats:     diagnostics.NewStats(),
		Collector: diagnostics.NewCollector(diagnostics.WithLimit(int(cfg.Diagnostics.MaxErrors))),
		Memory:    inmemory.NewStore(),
	}
	p.Stats.Publish(StatsVar)

	sinks, err := sinkset.Build(ctx, cfg, p.Memory, log, p.Stats)
	if err != nil {
		return nil, err
	}
	p.Sinks = sinks

	pool, err := worker.NewPool(&worker.Config{
		Sinks:     sinks,
		QueueSize: queueSize,
		Logger:    log,
		Stats:     p.Stats,
	})
	if err != nil {
		_ = sinks.Close()
		return nil, fmt.Errorf("creating delivery pool: %w", err)
	}
	p.Pool = pool

	log.Info("sinks ready", "sinks", sinks.Names())
	return p, nil
}

// Orchestrator returns an orchestrator for path that dispatches into the pool.
func (p *Pipeline) Orchestrator(path string, tail bool, rotations <-chan struct{}) (*ingest.Orchestrator, error) {
	interval, err := p.Config.Log.Interval()
	if err != nil {
		return nil, err
	}

	return ingest.New(ingest.Config{
		Path:       path,
		Interval:   interval,
		Tail:       tail,
		Rotations:  rotations,
		Dispatcher: p.Pool,
		Collector:  p.Collector,
		Stats:      p.Stats,
		Logger:     p.Logger,
	})
}

// Close drains queued deliveries and then closes every sink.
func (p *Pipeline) Close() error {
	p.Pool.Close()
	return p.Sinks.Close()
}
