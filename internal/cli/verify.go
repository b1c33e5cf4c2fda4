// Package cli provides the command-line interface for phxport.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/verify"
)

// newVerifyCmd creates the 'verify' command.
func newVerifyCmd(global *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <bundle-dir>",
		Short: "Verify the integrity of an export bundle",
		Long: `Verify the structural integrity of an export bundle: documents parse,
trace files are readable, recorded span counts match the trace files, and
the requirements.txt snapshot (when present) lints clean.

Exits 1 when any check fails.

Examples:
  phxport verify phoenix_export
  phxport verify phoenix_export --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.OutOrStdout(), args[0], global)
		},
		SilenceUsage: true,
	}
}

// AddVerifyCommand adds the verify command to the root command.
func AddVerifyCommand(root *cobra.Command, global *GlobalFlags) {
	root.AddCommand(newVerifyCmd(global))
}

func runVerify(out io.Writer, dir string, global *GlobalFlags) error {
	report, err := verify.New(GetLogger()).Verify(dir)
	if err != nil {
		return err
	}

	if global.Output == OutputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(err, "failed to encode report")
		}
	} else {
		writeVerifyText(out, report)
	}

	if !report.Ok() {
		return errors.Wrapf(errors.ErrBundleCorrupted, "%d check(s) failed", report.Failed)
	}
	return nil
}

func writeVerifyText(out io.Writer, report *verify.Report) {
	_, _ = fmt.Fprintf(out, "Bundle: %s\n", report.Bundle)
	_, _ = fmt.Fprintf(out, "  datasets: %d  prompts: %d  projects: %d  spans: %d\n",
		report.Datasets, report.Prompts, report.Projects, report.Spans)

	for _, check := range report.Checks {
		if check.OK {
			continue
		}
		_, _ = fmt.Fprintf(out, "  FAIL %s %s: %s\n", check.Name, check.Target, check.Detail)
	}

	if report.Ok() {
		_, _ = fmt.Fprintln(out, "OK")
	} else {
		_, _ = fmt.Fprintf(out, "%d check(s) failed\n", report.Failed)
	}
}
