package config

import (
	"net/url"
	"time"

	"github.com/phxport/phxport/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - Phoenix timeout must be positive, page size between 1 and 1000
//   - Phoenix endpoint, when set, must be an absolute http(s) URL
//   - Arize timeout must be positive and endpoint non-empty
//   - Export concurrency must be between 1 and 32
//   - Export span codec must be "parquet" or "jsonl"
//   - Retry attempts between 1 and 20, backoffs positive and ordered,
//     multiplier at least 1
//
// Presence of credentials is NOT validated here: export does not need Arize
// keys and import does not need a Phoenix endpoint, so each command checks
// the fields it actually uses.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validatePhoenixConfig(&cfg.Phoenix); err != nil {
		return err
	}
	if err := validateArizeConfig(&cfg.Arize); err != nil {
		return err
	}
	if err := validateExportConfig(&cfg.Export); err != nil {
		return err
	}
	return validateRetryConfig(&cfg.Retry)
}

// validatePhoenixConfig checks Phoenix-specific configuration values.
func validatePhoenixConfig(cfg *PhoenixConfig) error {
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidPhoenix,
			"phoenix.timeout must be positive, got %s", cfg.Timeout)
	}

	if cfg.PageSize < 1 || cfg.PageSize > 1000 {
		return errors.Wrapf(errors.ErrConfigInvalidPhoenix,
			"phoenix.page_size must be between 1 and 1000, got %d", cfg.PageSize)
	}

	if cfg.Endpoint != "" {
		if err := validateEndpointURL(cfg.Endpoint); err != nil {
			return errors.Wrapf(errors.ErrConfigInvalidPhoenix,
				"phoenix.endpoint %q is not a valid http(s) URL", cfg.Endpoint)
		}
	}

	return nil
}

// validateArizeConfig checks Arize-specific configuration values.
func validateArizeConfig(cfg *ArizeConfig) error {
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidArize,
			"arize.timeout must be positive, got %s", cfg.Timeout)
	}

	if cfg.Endpoint == "" {
		return errors.Wrap(errors.ErrConfigInvalidArize,
			"arize.endpoint must not be empty")
	}

	if err := validateEndpointURL(cfg.Endpoint); err != nil {
		return errors.Wrapf(errors.ErrConfigInvalidArize,
			"arize.endpoint %q is not a valid http(s) URL", cfg.Endpoint)
	}

	return nil
}

// validateExportConfig checks export bundle configuration values.
func validateExportConfig(cfg *ExportConfig) error {
	if cfg.Dir == "" {
		return errors.Wrap(errors.ErrConfigInvalidPhoenix,
			"export.dir must not be empty")
	}

	if cfg.Concurrency < 1 || cfg.Concurrency > 32 {
		return errors.Wrapf(errors.ErrConfigInvalidPhoenix,
			"export.concurrency must be between 1 and 32, got %d", cfg.Concurrency)
	}

	switch cfg.SpanCodec {
	case "parquet", "jsonl":
	default:
		return errors.Wrapf(errors.ErrUnsupportedCodec,
			"export.span_codec must be parquet or jsonl, got %q", cfg.SpanCodec)
	}

	return nil
}

// validateRetryConfig checks the retry/backoff policy.
func validateRetryConfig(cfg *RetryConfig) error {
	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > 20 {
		return errors.Wrapf(errors.ErrConfigInvalidRetry,
			"retry.max_attempts must be between 1 and 20, got %d", cfg.MaxAttempts)
	}

	if cfg.InitialBackoff <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidRetry,
			"retry.initial_backoff must be positive, got %s", cfg.InitialBackoff)
	}

	if cfg.MaxBackoff < cfg.InitialBackoff {
		return errors.Wrapf(errors.ErrConfigInvalidRetry,
			"retry.max_backoff (%s) must not be less than retry.initial_backoff (%s)",
			cfg.MaxBackoff, cfg.InitialBackoff)
	}

	if cfg.MaxBackoff > 10*time.Minute {
		return errors.Wrapf(errors.ErrConfigInvalidRetry,
			"retry.max_backoff must not exceed 10 minutes, got %s", cfg.MaxBackoff)
	}

	if cfg.Multiplier < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidRetry,
			"retry.multiplier must be at least 1, got %g", cfg.Multiplier)
	}

	return nil
}

// validateEndpointURL checks that s parses as an absolute http or https URL.
func validateEndpointURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.ErrInvalidArgument
	}
	if u.Host == "" {
		return errors.ErrInvalidArgument
	}
	return nil
}
