// Package cli provides the command-line interface for phxport.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/phxport/phxport/internal/config"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/export"
	"github.com/phxport/phxport/internal/phoenix"
	"github.com/phxport/phxport/internal/progress"
	"github.com/phxport/phxport/internal/transport"
)

// ExportFlags holds flags specific to the export command.
type ExportFlags struct {
	// All selects every step.
	All bool
	// Datasets, Prompts, Traces, Annotations, Evaluations select single steps.
	Datasets    bool
	Prompts     bool
	Traces      bool
	Annotations bool
	Evaluations bool
	// Projects also selects the traces step, which writes project metadata
	// alongside the trace files.
	Projects bool
	// ProjectNames filters the trace-derived steps to the named projects.
	ProjectNames []string
	// Dir overrides the bundle directory from configuration.
	Dir string
	// Requirements snapshots a pip requirements file into the bundle.
	Requirements string
}

// steps translates the selection flags into step names. Returns nil for
// --all, which means every step.
func (f *ExportFlags) steps() ([]string, error) {
	if f.All {
		return nil, nil
	}

	var steps []string
	for _, sel := range []struct {
		on   bool
		name string
	}{
		{f.Datasets, export.StepDatasets},
		{f.Prompts, export.StepPrompts},
		{f.Traces || f.Projects, export.StepTraces},
		{f.Annotations, export.StepAnnotations},
		{f.Evaluations, export.StepEvaluations},
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

// newExportCmd creates the 'export' command.
func newExportCmd(flags *ExportFlags, global *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export Phoenix data into a bundle directory",
		Long: `Export datasets, prompts, traces, annotations and evaluations from a
Phoenix server into a bundle directory.

Steps always run in a fixed order: datasets, prompts, traces, annotations,
evaluations. A failing item is recorded in its step's results file and the
run continues; the command exits 1 if any step recorded a failure.

Examples:
  phxport export --all
  phxport export --datasets --prompts
  phxport export --traces --project my-app --dir ./backup
  phxport export --all --requirements requirements.txt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), flags, global)
		},
		SilenceUsage: true,
	}

	cmd.Flags().BoolVar(&flags.All, "all", false, "export everything")
	cmd.Flags().BoolVar(&flags.Datasets, "datasets", false, "export datasets")
	cmd.Flags().BoolVar(&flags.Prompts, "prompts", false, "export prompts")
	cmd.Flags().BoolVar(&flags.Traces, "traces", false, "export project traces")
	cmd.Flags().BoolVar(&flags.Projects, "projects", false, "export project metadata and traces")
	cmd.Flags().BoolVar(&flags.Annotations, "annotations", false, "export span annotations")
	cmd.Flags().BoolVar(&flags.Evaluations, "evaluations", false, "export evaluations")
	cmd.Flags().StringSliceVar(&flags.ProjectNames, "project", nil, "limit trace steps to a project (repeatable)")
	cmd.Flags().StringVar(&flags.Dir, "dir", "", "bundle directory (default from config)")
	cmd.Flags().StringVar(&flags.Requirements, "requirements", "", "snapshot a pip requirements file into the bundle")

	return cmd
}

// AddExportCommand adds the export command to the root command.
func AddExportCommand(root *cobra.Command, global *GlobalFlags) {
	flags := &ExportFlags{}
	root.AddCommand(newExportCmd(flags, global))
}

func runExport(ctx context.Context, out io.Writer, flags *ExportFlags, global *GlobalFlags) error {
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
	client, err := phoenix.NewClient(cfg.Phoenix, transport.PolicyFromConfig(cfg.Retry), logger)
	if err != nil {
		return err
	}

	runner := export.NewRunner(client, cfg.Export, logger)

	if flags.Requirements != "" {
		if err := runner.SnapshotRequirements(flags.Requirements); err != nil {
			return err
		}
	}

	opts := export.Options{
		Steps:        steps,
		Projects:     flags.ProjectNames,
		ShowProgress: progress.Enabled() && !global.Quiet,
	}

	runErr := runner.Run(ctx, opts)
	if runErr != nil {
		return runErr
	}

	_, _ = fmt.Fprintf(out, "Export complete: %s (run %s)\n", cfg.Export.Dir, runner.RunID())
	return nil
}

// loadConfig loads .env and the layered configuration.
func loadConfig(ctx context.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	return config.Load(ctx)
}
