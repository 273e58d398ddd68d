package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --sqlite
// on both "arenatapes watch" and "arenatapes backfill").
type Flag struct {
	// Name is the long flag name (e.g. "sqlite").
	Name string

	// Shorthand is the one-letter short flag (e.g. "s"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "sinks.sqlite_path").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagLog            = "log"
	FlagTail           = "tail"
	FlagPollInterval   = "poll-interval"
	FlagJSONDir        = "json-dir"
	FlagSQLite         = "sqlite"
	FlagPostgres       = "postgres"
	FlagClickHouse     = "clickhouse"
	FlagClickHouseDB   = "clickhouse-database"
	FlagRPCTarget      = "rpc-target"
	FlagStreamProvider = "stream-provider"
	FlagStreamTarget   = "stream-target"
	FlagStreamTopic    = "stream-topic"
	FlagAPI            = "api"
	FlagAPIListen      = "api-listen"
	FlagMaxErrors      = "max-errors"
)

// Flags is the registry shared by every command.
var Flags = FlagSet{
	FlagLog:            {Name: "log", Shorthand: "l", ViperKey: "log.path", Description: "Path to the MTG Arena Player.log"},
	FlagTail:           {Name: "tail", ViperKey: "log.tail", Description: "Skip log content written before startup"},
	FlagPollInterval:   {Name: "poll-interval", ViperKey: "log.poll_interval", Description: "How often to read new log content"},
	FlagJSONDir:        {Name: "json-dir", ViperKey: "sinks.json_dir", Description: "Directory to write replay and draft JSON files to"},
	FlagSQLite:         {Name: "sqlite", Shorthand: "s", ViperKey: "sinks.sqlite_path", Description: "Path to a SQLite database sink"},
	FlagPostgres:       {Name: "postgres", ViperKey: "sinks.postgres_dsn", Description: "PostgreSQL connection string for the postgres sink"},
	FlagClickHouse:     {Name: "clickhouse", ViperKey: "sinks.clickhouse_addr", Description: "ClickHouse host:port for the analytics sink"},
	FlagClickHouseDB:   {Name: "clickhouse-database", ViperKey: "sinks.clickhouse_database", Description: "ClickHouse database name"},
	FlagRPCTarget:      {Name: "rpc-target", ViperKey: "sinks.rpc_target", Description: "gRPC ingest service target"},
	FlagStreamProvider: {Name: "stream-provider", ViperKey: "stream.provider", Description: "Event stream provider (none, kafka, redis, nats)"},
	FlagStreamTarget:   {Name: "stream-target", ViperKey: "stream.target", Description: "Event stream brokers or URL"},
	FlagStreamTopic:    {Name: "stream-topic", ViperKey: "stream.topic", Description: "Kafka topic, Redis stream, or NATS subject prefix"},
	FlagAPI:            {Name: "api", ViperKey: "api.enabled", Description: "Serve the diagnostics API"},
	FlagAPIListen:      {Name: "api-listen", ViperKey: "api.listen", Description: "Address for the diagnostics API"},
	FlagMaxErrors:      {Name: "max-errors", ViperKey: "diagnostics.max_errors", Description: "Parse failures kept in memory"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	return defaults().GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	return defaults().GetUint(viperKey)
}
