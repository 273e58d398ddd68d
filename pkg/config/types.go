package config

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Config represents the persistent arenatapes configuration stored as
// config.toml in the .arenatapes/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Log         LogConfig         `toml:"log"`
	Sinks       SinksConfig       `toml:"sinks"`
	Stream      StreamConfig      `toml:"stream"`
	API         APIConfig         `toml:"api"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

// LogConfig describes the client log being watched.
type LogConfig struct {
	// Path to Player.log. Empty means resolve from ARENATAPES_LOG and the
	// platform default locations.
	Path string `toml:"path,omitempty"`

	// Tail skips the content already in the file at startup.
	Tail bool `toml:"tail,omitempty"`

	// PollInterval is a Go duration string such as "1s".
	PollInterval string `toml:"poll_interval,omitempty"`
}

// Interval parses PollInterval.
func (l LogConfig) Interval() (time.Duration, error) {
	if l.PollInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(l.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid log.poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid log.poll_interval: %s is not positive", l.PollInterval)
	}
	return d, nil
}

// SinksConfig enables sinks by giving them a target. An empty value leaves
// the sink out.
type SinksConfig struct {
	JSONDir            string `toml:"json_dir,omitempty"`
	SQLitePath         string `toml:"sqlite_path,omitempty"`
	PostgresDSN        string `toml:"postgres_dsn,omitempty"`
	ClickHouseAddr     string `toml:"clickhouse_addr,omitempty"`
	ClickHouseDatabase string `toml:"clickhouse_database,omitempty"`
	ClickHouseUsername string `toml:"clickhouse_username,omitempty"`
	ClickHousePassword string `toml:"clickhouse_password,omitempty"`
	RPCTarget          string `toml:"rpc_target,omitempty"`
}

// StreamConfig selects an event stream publisher.
type StreamConfig struct {
	// Provider is one of "none", "kafka", "redis", or "nats".
	Provider string `toml:"provider,omitempty"`

	// Target is the broker list, redis URL, or nats URL.
	Target string `toml:"target,omitempty"`

	// Topic is the kafka topic, redis stream, or nats subject prefix.
	Topic string `toml:"topic,omitempty"`
}

// APIConfig holds diagnostics API server settings.
type APIConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Listen  string `toml:"listen,omitempty"`
}

// DiagnosticsConfig bounds the in-memory diagnostics.
type DiagnosticsConfig struct {
	MaxErrors uint `toml:"max_errors,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"log.path": stringKey(func(c *Config) *string { return &c.Log.Path }),
	"log.tail": boolKey("log.tail", func(c *Config) *bool { return &c.Log.Tail }),
	"log.poll_interval": {
		get: func(c *Config) string { return c.Log.PollInterval },
		set: func(c *Config, v string) error {
			if _, err := (LogConfig{PollInterval: v}).Interval(); err != nil {
				return err
			}
			c.Log.PollInterval = v
			return nil
		},
	},

	"sinks.json_dir":            stringKey(func(c *Config) *string { return &c.Sinks.JSONDir }),
	"sinks.sqlite_path":         stringKey(func(c *Config) *string { return &c.Sinks.SQLitePath }),
	"sinks.postgres_dsn":        stringKey(func(c *Config) *string { return &c.Sinks.PostgresDSN }),
	"sinks.clickhouse_addr":     stringKey(func(c *Config) *string { return &c.Sinks.ClickHouseAddr }),
	"sinks.clickhouse_database": stringKey(func(c *Config) *string { return &c.Sinks.ClickHouseDatabase }),
	"sinks.clickhouse_username": stringKey(func(c *Config) *string { return &c.Sinks.ClickHouseUsername }),
	"sinks.clickhouse_password": stringKey(func(c *Config) *string { return &c.Sinks.ClickHousePassword }),
	"sinks.rpc_target":          stringKey(func(c *Config) *string { return &c.Sinks.RPCTarget }),

	"stream.provider": {
		get: func(c *Config) string { return c.Stream.Provider },
		set: func(c *Config, v string) error {
			if !IsValidStreamProvider(v) {
				return fmt.Errorf("invalid value for stream.provider: %q (available: %v)", v, StreamProviders())
			}
			c.Stream.Provider = v
			return nil
		},
	},
	"stream.target": stringKey(func(c *Config) *string { return &c.Stream.Target }),
	"stream.topic":  stringKey(func(c *Config) *string { return &c.Stream.Topic }),

	"api.enabled": boolKey("api.enabled", func(c *Config) *bool { return &c.API.Enabled }),
	"api.listen":  stringKey(func(c *Config) *string { return &c.API.Listen }),

	"diagnostics.max_errors": {
		get: func(c *Config) string {
			if c.Diagnostics.MaxErrors == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Diagnostics.MaxErrors), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for diagnostics.max_errors: %w", err)
			}
			c.Diagnostics.MaxErrors = uint(n)
			return nil
		},
	},
}

// Stream providers.
const (
	StreamNone  = "none"
	StreamKafka = "kafka"
	StreamRedis = "redis"
	StreamNATS  = "nats"
)

// StreamProviders lists the accepted stream.provider values.
func StreamProviders() []string {
	return []string{StreamNone, StreamKafka, StreamRedis, StreamNATS}
}

// IsValidStreamProvider reports whether p names a known provider. Empty
// counts as "none".
func IsValidStreamProvider(p string) bool {
	if p == "" {
		return true
	}
	return slices.Contains(StreamProviders(), p)
}
