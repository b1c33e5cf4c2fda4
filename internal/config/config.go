// Package config provides configuration management for phxport with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (bound by the cli package)
//  2. Environment variables (PHXPORT_* prefix, plus the bare names
//     PHOENIX_ENDPOINT, PHOENIX_API_KEY, PHOENIX_EXPORT_DIR, ARIZE_API_KEY,
//     ARIZE_SPACE_ID and ARIZE_DEVELOPER_KEY)
//  3. Project config (.phxport/config.yaml)
//  4. Global config (~/.phxport/config.yaml)
//  5. Built-in defaults
//
// A .env file in the working directory is loaded into the process environment
// before binding, so all of the above environment variables may also live there.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import "time"

// Config is the root configuration structure for phxport.
type Config struct {
	// Phoenix contains settings for the Phoenix server that data is exported from.
	Phoenix PhoenixConfig `yaml:"phoenix" mapstructure:"phoenix"`

	// Arize contains settings for the Arize space that data is imported into.
	Arize ArizeConfig `yaml:"arize" mapstructure:"arize"`

	// Export contains settings for the export bundle.
	Export ExportConfig `yaml:"export" mapstructure:"export"`

	// Retry contains the retry/backoff policy shared by both API clients.
	Retry RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// PhoenixConfig contains settings for the Phoenix API client.
type PhoenixConfig struct {
	// Endpoint is the base URL of the Phoenix server, e.g.
	// http://localhost:6006 for self-hosted or
	// https://app.phoenix.arize.com for Phoenix Cloud.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey authenticates against Phoenix Cloud. Empty for most
	// self-hosted deployments.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Timeout is the per-request timeout.
	// Default: 60 seconds
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// PageSize is the page size for cursor-paginated listings.
	// Default: 100, Valid range: 1-1000
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// ArizeConfig contains settings for the Arize ingestion client.
type ArizeConfig struct {
	// Endpoint is the base URL of the Arize API.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey authenticates all import operations.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// SpaceID identifies the Arize space imports are written to.
	SpaceID string `yaml:"space_id" mapstructure:"space_id"`

	// DeveloperKey is required by some evaluation endpoints. Optional.
	DeveloperKey string `yaml:"developer_key" mapstructure:"developer_key"`

	// Timeout is the per-request timeout.
	// Default: 60 seconds
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ExportConfig contains settings for the on-disk export bundle.
type ExportConfig struct {
	// Dir is the bundle directory. Default: "phoenix_export".
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Concurrency bounds how many projects are exported in parallel.
	// Default: 4, Valid range: 1-32
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// SpanCodec selects the span file format: "parquet" (default) or "jsonl".
	SpanCodec string `yaml:"span_codec" mapstructure:"span_codec"`
}

// RetryConfig contains the retry/backoff policy for HTTP requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per request.
	// Default: 5, Valid range: 1-20
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// InitialBackoff is the delay before the first retry.
	// Default: 1 second
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`

	// MaxBackoff caps exponential backoff growth.
	// Default: 30 seconds
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`

	// Multiplier is the exponential growth factor between retries.
	// Default: 2.0
	Multiplier float64 `yaml:"multiplier" mapstructure:"multiplier"`
}
