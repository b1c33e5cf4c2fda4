package export

import (
	"os"

	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/manifest"
)

// SnapshotRequirements copies a pip requirements file into the bundle as an
// environment snapshot. The file is linted first; syntax errors, duplicate
// packages or unsatisfiable constraint sets reject the snapshot.
func (r *Runner) SnapshotRequirements(path string) error {
	report, err := manifest.LintFile(path)
	if err != nil {
		return err
	}
	if !report.Ok() {
		return errors.Wrapf(errors.ErrManifestSyntax, "%s has %d issue(s), not snapshotting", path, len(report.Issues))
	}

	data, err := os.ReadFile(path) //nolint:gosec // User-supplied path by design of the flag
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	if err := os.MkdirAll(r.bundle.Root(), 0o750); err != nil {
		return errors.Wrap(err, "failed to create bundle directory")
	}
	if err := os.WriteFile(r.bundle.RequirementsPath(), data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write requirements snapshot")
	}

	r.logger.Info().Str("source", path).Int("requirements", report.Requirements).Msg("Snapshotted requirements")
	return nil
}
