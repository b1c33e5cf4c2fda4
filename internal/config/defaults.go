package config

import (
	"github.com/spf13/viper"

	"github.com/phxport/phxport/internal/constants"
)

// DefaultArizeEndpoint is the public Arize API base URL.
const DefaultArizeEndpoint = "https://api.arize.com"

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Phoenix: PhoenixConfig{
			// Endpoint is deliberately empty: there is no safe guess between
			// self-hosted and Phoenix Cloud, so export refuses to run without it.
			Endpoint: "",
			APIKey:   "",
			Timeout:  constants.DefaultHTTPTimeout,
			PageSize: constants.DefaultPageSize,
		},
		Arize: ArizeConfig{
			Endpoint: DefaultArizeEndpoint,
			Timeout:  constants.DefaultHTTPTimeout,
		},
		Export: ExportConfig{
			Dir:         constants.DefaultExportDir,
			Concurrency: 4,
			SpanCodec:   "parquet",
		},
		Retry: RetryConfig{
			MaxAttempts:    constants.MaxRetryAttempts,
			InitialBackoff: constants.InitialBackoff,
			MaxBackoff:     constants.MaxBackoff,
			Multiplier:     constants.BackoffMultiplier,
		},
	}
}

// setDefaults registers default values on a viper instance so that partial
// config files merge cleanly over them.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("phoenix.endpoint", def.Phoenix.Endpoint)
	v.SetDefault("phoenix.api_key", def.Phoenix.APIKey)
	v.SetDefault("phoenix.timeout", def.Phoenix.Timeout)
	v.SetDefault("phoenix.page_size", def.Phoenix.PageSize)

	v.SetDefault("arize.endpoint", def.Arize.Endpoint)
	v.SetDefault("arize.api_key", def.Arize.APIKey)
	v.SetDefault("arize.space_id", def.Arize.SpaceID)
	v.SetDefault("arize.developer_key", def.Arize.DeveloperKey)
	v.SetDefault("arize.timeout", def.Arize.Timeout)

	v.SetDefault("export.dir", def.Export.Dir)
	v.SetDefault("export.concurrency", def.Export.Concurrency)
	v.SetDefault("export.span_codec", def.Export.SpanCodec)

	v.SetDefault("retry.max_attempts", def.Retry.MaxAttempts)
	v.SetDefault("retry.initial_backoff", def.Retry.InitialBackoff)
	v.SetDefault("retry.max_backoff", def.Retry.MaxBackoff)
	v.SetDefault("retry.multiplier", def.Retry.Multiplier)
}
