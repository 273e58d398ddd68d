package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/arenatapes/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable read by InitViper.
const EnvPrefix = "ARENATAPES"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ARENATAPES_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ARENATAPES_LOG_PATH, ARENATAPES_SINKS_SQLITE_PATH, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the effective configuration.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Log: LogConfig{
			Path:         v.GetString("log.path"),
			Tail:         v.GetBool("log.tail"),
			PollInterval: v.GetString("log.poll_interval"),
		},
		Sinks: SinksConfig{
			JSONDir:            v.GetString("sinks.json_dir"),
			SQLitePath:         v.GetString("sinks.sqlite_path"),
			PostgresDSN:        v.GetString("sinks.postgres_dsn"),
			ClickHouseAddr:     v.GetString("sinks.clickhouse_addr"),
			ClickHouseDatabase: v.GetString("sinks.clickhouse_database"),
			ClickHouseUsername: v.GetString("sinks.clickhouse_username"),
			ClickHousePassword: v.GetString("sinks.clickhouse_password"),
			RPCTarget:          v.GetString("sinks.rpc_target"),
		},
		Stream: StreamConfig{
			Provider: v.GetString("stream.provider"),
			Target:   v.GetString("stream.target"),
			Topic:    v.GetString("stream.topic"),
		},
		API: APIConfig{
			Enabled: v.GetBool("api.enabled"),
			Listen:  v.GetString("api.listen"),
		},
		Diagnostics: DiagnosticsConfig{
			MaxErrors: v.GetUint("diagnostics.max_errors"),
		},
	}

	if _, err := cfg.Log.Interval(); err != nil {
		return nil, err
	}
	if !IsValidStreamProvider(cfg.Stream.Provider) {
		return nil, fmt.Errorf("unknown stream provider %q", cfg.Stream.Provider)
	}
	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
// Every key is registered, even empty ones, so AutomaticEnv can see it.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	for _, key := range ValidConfigKeys() {
		switch key {
		case "log.tail":
			v.SetDefault(key, d.Log.Tail)
		case "api.enabled":
			v.SetDefault(key, d.API.Enabled)
		case "diagnostics.max_errors":
			v.SetDefault(key, d.Diagnostics.MaxErrors)
		default:
			v.SetDefault(key, configKeys[key].get(d))
		}
	}
}
