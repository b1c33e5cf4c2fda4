package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	phxerrors "github.com/phxport/phxport/internal/errors"
)

// TestValidate_NilConfig tests that nil config returns error
func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()

	err := Validate(nil)

	require.Error(t, err)
	require.ErrorIs(t, err, phxerrors.ErrConfigNil)
}

// TestValidate_DefaultConfig tests that default config is valid
func TestValidate_DefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	err := Validate(cfg)

	require.NoError(t, err)
}

// TestValidate_PhoenixBoundaries tests Phoenix value ranges
func TestValidate_PhoenixBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Phoenix.Timeout = 0 },
			wantErr: phxerrors.ErrConfigInvalidPhoenix,
		},
		{
			name:    "page size too small",
			mutate:  func(c *Config) { c.Phoenix.PageSize = 0 },
			wantErr: phxerrors.ErrConfigInvalidPhoenix,
		},
		{
			name:    "page size too large",
			mutate:  func(c *Config) { c.Phoenix.PageSize = 1001 },
			wantErr: phxerrors.ErrConfigInvalidPhoenix,
		},
		{
			name:    "endpoint without scheme",
			mutate:  func(c *Config) { c.Phoenix.Endpoint = "localhost:6006" },
			wantErr: phxerrors.ErrConfigInvalidPhoenix,
		},
		{
			name:    "ftp endpoint rejected",
			mutate:  func(c *Config) { c.Phoenix.Endpoint = "ftp://example.com" },
			wantErr: phxerrors.ErrConfigInvalidPhoenix,
		},
		{
			name:   "valid self-hosted endpoint",
			mutate: func(c *Config) { c.Phoenix.Endpoint = "http://localhost:6006" },
		},
		{
			name:   "valid cloud endpoint",
			mutate: func(c *Config) { c.Phoenix.Endpoint = "https://app.phoenix.arize.com" },
		},
		{
			name:   "empty endpoint allowed at validation time",
			mutate: func(c *Config) { c.Phoenix.Endpoint = "" },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

// TestValidate_ArizeBoundaries tests Arize value ranges
func TestValidate_ArizeBoundaries(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Arize.Endpoint = ""
	require.ErrorIs(t, Validate(cfg), phxerrors.ErrConfigInvalidArize)

	cfg = DefaultConfig()
	cfg.Arize.Timeout = -time.Second
	require.ErrorIs(t, Validate(cfg), phxerrors.ErrConfigInvalidArize)
}

// TestValidate_ExportBoundaries tests export value ranges
func TestValidate_ExportBoundaries(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Export.Dir = ""
	require.Error(t, Validate(cfg))

	cfg = DefaultConfig()
	cfg.Export.Concurrency = 0
	require.Error(t, Validate(cfg))

	cfg = DefaultConfig()
	cfg.Export.Concurrency = 33
	require.Error(t, Validate(cfg))

	cfg = DefaultConfig()
	cfg.Export.SpanCodec = "csv"
	require.ErrorIs(t, Validate(cfg), phxerrors.ErrUnsupportedCodec)

	cfg = DefaultConfig()
	cfg.Export.SpanCodec = "jsonl"
	require.NoError(t, Validate(cfg))
}

// TestValidate_RetryBoundaries tests retry policy ranges
func TestValidate_RetryBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{name: "zero attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{name: "too many attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 21 }},
		{name: "zero initial backoff", mutate: func(c *Config) { c.Retry.InitialBackoff = 0 }},
		{name: "max below initial", mutate: func(c *Config) {
			c.Retry.InitialBackoff = 10 * time.Second
			c.Retry.MaxBackoff = time.Second
		}},
		{name: "max backoff too large", mutate: func(c *Config) { c.Retry.MaxBackoff = time.Hour }},
		{name: "multiplier below one", mutate: func(c *Config) { c.Retry.Multiplier = 0.5 }},
		{name: "single attempt allowed", mutate: func(c *Config) { c.Retry.MaxAttempts = 1 }, valid: true},
		{name: "flat backoff allowed", mutate: func(c *Config) { c.Retry.Multiplier = 1 }, valid: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)

			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, phxerrors.ErrConfigInvalidRetry)
		})
	}
}
