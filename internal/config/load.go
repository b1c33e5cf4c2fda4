package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/phxport/phxport/internal/constants"
	"github.com/phxport/phxport/internal/errors"
)

// legacyEnvBindings maps config keys to the bare environment variable names
// that predate the PHXPORT_ prefix. Both forms are bound so existing
// deployments keep working.
var legacyEnvBindings = map[string]string{ //nolint:gochecknoglobals // Static binding table
	"phoenix.endpoint":    constants.EnvPhoenixEndpoint,
	"phoenix.api_key":     constants.EnvPhoenixAPIKey,
	"export.dir":          constants.EnvPhoenixExportDir,
	"arize.api_key":       constants.EnvArizeAPIKey,
	"arize.space_id":      constants.EnvArizeSpaceID,
	"arize.developer_key": constants.EnvArizeDeveloperKey,
}

// newViperInstance creates a new Viper instance with standard phxport configuration.
// This includes environment variable prefix (PHXPORT_), key replacer, legacy
// env bindings and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PHXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnvBindings {
		// BindEnv only fails for an empty key, which the table never contains.
		_ = v.BindEnv(key, env)
	}
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// LoadDotEnv loads a .env file from the working directory into the process
// environment, if one exists. Existing environment variables win over .env
// entries.
func LoadDotEnv() error {
	if !fileExists(".env") {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return errors.Wrap(err, "failed to load .env file")
	}
	return nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (PHXPORT_* prefix and legacy bare names)
//  2. Project config (.phxport/config.yaml)
//  3. Global config (~/.phxport/config.yaml)
//  4. Built-in defaults
//
// A .env file in the working directory is applied to the environment first.
//
// The function returns an error only for actual configuration problems,
// not for missing config files (which are expected in many scenarios).
func Load(ctx context.Context) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := newViperInstance()

	// Load global config first (lower precedence)
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	// Load project config (higher precedence, merges over global)
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Dur("phoenix.timeout", cfg.Phoenix.Timeout).
		Int("phoenix.page_size", cfg.Phoenix.PageSize).
		Int("retry.max_attempts", cfg.Retry.MaxAttempts).
		Str("export.dir", cfg.Export.Dir).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// loadGlobalConfig attempts to load the global config file (~/.phxport/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil || !fileExists(globalConfigPath) {
		// Global config doesn't exist or home dir unavailable, skip silently
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig attempts to load the project config file (.phxport/config.yaml).
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// viperDecoderOption returns the decoder configuration shared by all
// Unmarshal calls. Duration strings like "90s" decode into time.Duration.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
