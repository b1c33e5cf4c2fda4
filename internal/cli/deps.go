// Package cli provides the command-line interface for phxport.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/manifest"
)

// newDepsCmd creates the 'deps' command.
func newDepsCmd(global *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "deps <requirements-file>",
		Short: "Lint a pip requirements file",
		Long: `Parse and validate a pip requirements file.

Checks that every line parses as a requirement specifier, that every
version constraint set is satisfiable, and that no package is declared
twice (names compared case-insensitively with '-', '_' and '.' treated as
equivalent). Exits 1 when the file has errors; warnings alone do not fail.

Examples:
  phxport deps requirements.txt
  phxport deps requirements.txt --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd.OutOrStdout(), args[0], global)
		},
		SilenceUsage: true,
	}
}

// AddDepsCommand adds the deps command to the root command.
func AddDepsCommand(root *cobra.Command, global *GlobalFlags) {
	root.AddCommand(newDepsCmd(global))
}

func runDeps(out io.Writer, path string, global *GlobalFlags) error {
	report, err := manifest.LintFile(path)
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
		writeDepsText(out, report)
	}

	if !report.Ok() {
		return errors.Wrapf(errors.ErrManifestSyntax, "%s has errors", path)
	}
	return nil
}

func writeDepsText(out io.Writer, report *manifest.Report) {
	_, _ = fmt.Fprintf(out, "%s: %d requirement(s)\n", report.Path, report.Requirements)

	// Listing is best effort: a manifest with parse errors is already
	// covered by the issue lines below.
	if m, err := manifest.ParseFile(report.Path); err == nil {
		for _, req := range m.Requirements {
			line := "  " + req.Name
			if len(req.Extras) > 0 {
				line += "[" + strings.Join(req.Extras, ",") + "]"
			}
			if spec := req.Constraints.String(); spec != "" {
				line += " " + spec
			}
			_, _ = fmt.Fprintln(out, line)
		}
	}

	for _, issue := range report.Issues {
		_, _ = fmt.Fprintf(out, "  %s\n", issue.String())
	}

	if report.Ok() {
		_, _ = fmt.Fprintln(out, "OK")
	}
}
