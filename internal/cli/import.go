// Package cli provides the command-line interface for phxport.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/phxport/phxport/internal/arize"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/importer"
	"github.com/phxport/phxport/internal/progress"
	"github.com/phxport/phxport/internal/transport"
)

// ImportFlags holds flags specific to the import command.
type ImportFlags struct {
	// All selects every step.
	All bool
	// Datasets, Prompts, Traces, Evaluations, Annotations select single steps.
	Datasets    bool
	Prompts     bool
	Traces      bool
	Evaluations bool
	Annotations bool
	// Projects filters the trace-derived steps to the named projects.
	Projects []string
	// Dir overrides the bundle directory from configuration.
	Dir string
	// Yes skips the interactive checkpoints.
	Yes bool
}

func (f *ImportFlags) steps() ([]string, error) {
	if f.All {
		return nil, nil
	}

	var steps []string
	for _, sel := range []struct {
		on   bool
		name string
	}{
		{f.Datasets, importer.StepDatasets},
		{f.Prompts, importer.StepPrompts},
		{f.Traces, importer.StepTraces},
		{f.Evaluations, importer.StepEvaluations},
		{f.Annotations, importer.StepAnnotations},
	} {
		if sel.on {
			steps = append(steps, sel.name)
		}
	}
	if len(steps) == 0 {
		return nil, errors.Wrap(errors.ErrNoStepSelected, "pass --all or one or more step flags")
	}
	return steps, nil
}

// newImportCmd creates the 'import' command.
func newImportCmd(flags *ImportFlags, global *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a bundle directory into an Arize space",
		Long: `Import an export bundle into an Arize space.

Steps always run in a fixed order: datasets, prompts, traces, evaluations,
annotations. Resources that already exist in the space are recorded as
already_exists and skipped. Between trace ingestion and the steps that
attach data to spans the command pauses for confirmation; pass --yes to
skip the checkpoints in scripted runs.

Examples:
  phxport import --all
  phxport import --datasets --dir ./backup
  phxport import --all --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), flags, global)
		},
		SilenceUsage: true,
	}

	cmd.Flags().BoolVar(&flags.All, "all", false, "import everything")
	cmd.Flags().BoolVar(&flags.Datasets, "datasets", false, "import datasets")
	cmd.Flags().BoolVar(&flags.Prompts, "prompts", false, "import prompts")
	cmd.Flags().BoolVar(&flags.Traces, "traces", false, "import project traces")
	cmd.Flags().BoolVar(&flags.Evaluations, "evaluations", false, "import evaluations")
	cmd.Flags().BoolVar(&flags.Annotations, "annotations", false, "import span annotations")
	cmd.Flags().StringSliceVar(&flags.Projects, "project", nil, "limit trace steps to a project (repeatable)")
	cmd.Flags().StringVar(&flags.Dir, "dir", "", "bundle directory (default from config)")
	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "answer yes to all checkpoints")

	return cmd
}

// AddImportCommand adds the import command to the root command.
func AddImportCommand(root *cobra.Command, global *GlobalFlags) {
	flags := &ImportFlags{}
	root.AddCommand(newImportCmd(flags, global))
}

func runImport(ctx context.Context, out io.Writer, flags *ImportFlags, global *GlobalFlags) error {
	steps, err := flags.steps()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if flags.Dir != "" {
		cfg.Export.Dir = flags.Dir
	}

	logger := GetLogger()
	client, err := arize.NewClient(cfg.Arize, transport.PolicyFromConfig(cfg.Retry), logger)
	if err != nil {
		return err
	}

	var confirm importer.Confirmer = importer.NewTerminalConfirmer()
	if flags.Yes {
		confirm = importer.AutoConfirmer{}
	}

	runner := importer.NewRunner(client, cfg.Export.Dir, confirm, logger)

	opts := importer.Options{
		Steps:        steps,
		Projects:     flags.Projects,
		ShowProgress: progress.Enabled() && !global.Quiet,
	}

	if err := runner.Run(ctx, opts); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Import complete: %s -> space %s (run %s)\n", cfg.Export.Dir, client.SpaceID(), runner.RunID())
	return nil
}
