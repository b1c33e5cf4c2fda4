// Package cli provides the command-line interface for phxport.
package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phxport/phxport/internal/config"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/logging"
)

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command) {
	configCmd := &cobra.Command{
		Use:          "config",
		Short:        "Manage phxport configuration",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := &ConfigShowFlags{}
	configCmd.AddCommand(newConfigShowCmd(flags))
	root.AddCommand(configCmd)
}

// ConfigShowFlags holds flags specific to the config show command.
type ConfigShowFlags struct {
	// OutputFormat specifies the output format (yaml or json).
	OutputFormat string
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd(flags *ConfigShowFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display the effective phxport configuration after merging defaults,
config files, environment variables and .env.

Sensitive values (API keys) are masked in the output.

Examples:
  phxport config show                 # YAML format
  phxport config show --output json   # JSON format`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), flags)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "yaml", "output format (yaml or json)")

	return cmd
}

// maskedConfig mirrors config.Config with credentials replaced by
// redaction markers.
type maskedConfig struct {
	Phoenix struct {
		Endpoint string `yaml:"endpoint" json:"endpoint"`
		APIKey   string `yaml:"api_key" json:"api_key"`
		Timeout  string `yaml:"timeout" json:"timeout"`
		PageSize int    `yaml:"page_size" json:"page_size"`
	} `yaml:"phoenix" json:"phoenix"`
	Arize struct {
		Endpoint     string `yaml:"endpoint" json:"endpoint"`
		APIKey       string `yaml:"api_key" json:"api_key"`
		SpaceID      string `yaml:"space_id" json:"space_id"`
		DeveloperKey string `yaml:"developer_key" json:"developer_key"`
		Timeout      string `yaml:"timeout" json:"timeout"`
	} `yaml:"arize" json:"arize"`
	Export struct {
		Dir         string `yaml:"dir" json:"dir"`
		Concurrency int    `yaml:"concurrency" json:"concurrency"`
		SpanCodec   string `yaml:"span_codec" json:"span_codec"`
	} `yaml:"export" json:"export"`
	Retry struct {
		MaxAttempts    int     `yaml:"max_attempts" json:"max_attempts"`
		InitialBackoff string  `yaml:"initial_backoff" json:"initial_backoff"`
		MaxBackoff     string  `yaml:"max_backoff" json:"max_backoff"`
		Multiplier     float64 `yaml:"multiplier" json:"multiplier"`
	} `yaml:"retry" json:"retry"`
}

// maskSecret replaces a non-empty credential with the redaction marker.
// Empty stays empty so the output shows what is unset.
func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	return logging.RedactedValue
}

func maskConfig(cfg *config.Config) maskedConfig {
	var m maskedConfig

	m.Phoenix.Endpoint = cfg.Phoenix.Endpoint
	m.Phoenix.APIKey = maskSecret(cfg.Phoenix.APIKey)
	m.Phoenix.Timeout = cfg.Phoenix.Timeout.String()
	m.Phoenix.PageSize = cfg.Phoenix.PageSize

	m.Arize.Endpoint = cfg.Arize.Endpoint
	m.Arize.APIKey = maskSecret(cfg.Arize.APIKey)
	m.Arize.SpaceID = cfg.Arize.SpaceID
	m.Arize.DeveloperKey = maskSecret(cfg.Arize.DeveloperKey)
	m.Arize.Timeout = cfg.Arize.Timeout.String()

	m.Export.Dir = cfg.Export.Dir
	m.Export.Concurrency = cfg.Export.Concurrency
	m.Export.SpanCodec = cfg.Export.SpanCodec

	m.Retry.MaxAttempts = cfg.Retry.MaxAttempts
	m.Retry.InitialBackoff = cfg.Retry.InitialBackoff.String()
	m.Retry.MaxBackoff = cfg.Retry.MaxBackoff.String()
	m.Retry.Multiplier = cfg.Retry.Multiplier

	return m
}

func runConfigShow(ctx context.Context, out io.Writer, flags *ConfigShowFlags) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	masked := maskConfig(cfg)

	switch flags.OutputFormat {
	case "yaml":
		data, err := yaml.Marshal(masked)
		if err != nil {
			return errors.Wrap(err, "failed to encode configuration")
		}
		_, _ = out.Write(data)
		return nil

	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(masked); err != nil {
			return errors.Wrap(err, "failed to encode configuration")
		}
		return nil

	default:
		return errors.Wrapf(errors.ErrInvalidOutputFormat, "%q must be yaml or json", flags.OutputFormat)
	}
}
