// Package sinkset builds the sink.Set described by a config.Config.
package sinkset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/arenatapes/pkg/config"
	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
	"github.com/papercomputeco/arenatapes/pkg/eventstream"
	"github.com/papercomputeco/arenatapes/pkg/eventstream/kafka"
	"github.com/papercomputeco/arenatapes/pkg/eventstream/nats"
	"github.com/papercomputeco/arenatapes/pkg/eventstream/nop"
	"github.com/papercomputeco/arenatapes/pkg/eventstream/redis"
	"github.com/papercomputeco/arenatapes/pkg/sink"
	"github.com/papercomputeco/arenatapes/pkg/sink/clickhouse"
	"github.com/papercomputeco/arenatapes/pkg/sink/inmemory"
	"github.com/papercomputeco/arenatapes/pkg/sink/jsonfile"
	"github.com/papercomputeco/arenatapes/pkg/sink/postgres"
	"github.com/papercomputeco/arenatapes/pkg/sink/rpc"
	"github.com/papercomputeco/arenatapes/pkg/sink/sqlite"
)

// Sink names as registered in the set.
const (
	NameMemory     = "memory"
	NameJSON       = "json"
	NameSQLite     = "sqlite"
	NamePostgres   = "postgres"
	NameClickHouse = "clickhouse"
	NameRPC        = "rpc"
	NameStream     = "stream"
)

// Build registers memory first and then every sink cfg configures. On error,
// the sinks opened so far are closed.
func Build(ctx context.Context, cfg *config.Config, memory *inmemory.Store, logger *slog.Logger, stats *diagnostics.Stats) (*sink.Set, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	set := sink.NewSet(logger, stats)
	if err := register(ctx, set, cfg, memory, logger); err != nil {
		if closeErr := set.Close(); closeErr != nil {
			logger.Warn("closing sinks after setup failure", "error", closeErr)
		}
		return nil, err
	}
	return set, nil
}

func register(ctx context.Context, set *sink.Set, cfg *config.Config, memory *inmemory.Store, logger *slog.Logger) error {
	add := func(name string, snk any) error {
		if err := set.Add(name, snk); err != nil {
			return err
		}
		logger.Debug("sink registered", "sink", name)
		return nil
	}

	if memory != nil {
		if err := add(NameMemory, memory); err != nil {
			return err
		}
	}

	if dir := cfg.Sinks.JSONDir; dir != "" {
		store, err := jsonfile.NewStore(dir)
		if err != nil {
			return fmt.Errorf("creating json sink: %w", err)
		}
		if err := add(NameJSON, store); err != nil {
			return err
		}
	}

	if path := cfg.Sinks.SQLitePath; path != "" {
		store, err := sqlite.NewStore(ctx, path)
		if err != nil {
			return fmt.Errorf("creating sqlite sink: %w", err)
		}
		if err := add(NameSQLite, store); err != nil {
			return err
		}
	}

	if dsn := cfg.Sinks.PostgresDSN; dsn != "" {
		store, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return fmt.Errorf("creating postgres sink: %w", err)
		}
		if err := add(NamePostgres, store); err != nil {
			return err
		}
	}

	if addr := cfg.Sinks.ClickHouseAddr; addr != "" {
		ch, err := clickhouse.NewSink(ctx, clickhouse.Options{
			Addr:     addr,
			Database: cfg.Sinks.ClickHouseDatabase,
			Username: cfg.Sinks.ClickHouseUsername,
			Password: cfg.Sinks.ClickHousePassword,
		})
		if err != nil {
			return fmt.Errorf("creating clickhouse sink: %w", err)
		}
		if err := add(NameClickHouse, ch); err != nil {
			return err
		}
	}

	if target := cfg.Sinks.RPCTarget; target != "" {
		client, err := rpc.NewSink(target)
		if err != nil {
			return fmt.Errorf("creating rpc sink: %w", err)
		}
		if err := add(NameRPC, client); err != nil {
			return err
		}
	}

	publisher, err := NewPublisher(ctx, cfg.Stream)
	if err != nil {
		return fmt.Errorf("creating stream sink: %w", err)
	}
	return add(NameStream, eventstream.NewSink(publisher))
}

// NewPublisher creates the event stream publisher for cfg. An empty or
// "none" provider yields a publisher that drops every event.
func NewPublisher(ctx context.Context, cfg config.StreamConfig) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case "", config.StreamNone:
		return nop.NewPublisher(), nil

	case config.StreamKafka:
		return kafka.NewPublisher(kafka.Config{
			Brokers: strings.Split(cfg.Target, ","),
			Topic:   cfg.Topic,
		})

	case config.StreamRedis:
		return redis.NewPublisher(ctx, cfg.Target, cfg.Topic)

	case config.StreamNATS:
		return nats.NewPublisher(nats.Config{
			URL:           cfg.Target,
			SubjectPrefix: cfg.Topic,
		})

	default:
		return nil, fmt.Errorf("unknown stream provider %q", cfg.Provider)
	}
}
