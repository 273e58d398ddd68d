package config

const (
	defaultPollInterval = "1s"

	defaultClickHouseDatabase = "arenatapes"

	defaultStreamProvider = StreamNone
	defaultStreamTopic    = "arenatapes"

	defaultAPIListen = "127.0.0.1:8081"

	defaultMaxErrors = 1000
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Log: LogConfig{
			PollInterval: defaultPollInterval,
		},
		Sinks: SinksConfig{
			ClickHouseDatabase: defaultClickHouseDatabase,
		},
		Stream: StreamConfig{
			Provider: defaultStreamProvider,
			Topic:    defaultStreamTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Diagnostics: DiagnosticsConfig{
			MaxErrors: defaultMaxErrors,
		},
	}
}
