// Package verify checks the structural integrity of an export bundle:
// documents parse, trace files are readable, recorded counts match, and the
// optional requirements snapshot lints clean.
package verify

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/phxport/phxport/internal/bundle"
	"github.com/phxport/phxport/internal/constants"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/manifest"
)

// Check is one verification finding.
type Check struct {
	Name   string `json:"name"`
	Target string `json:"target"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Report is the outcome of verifying one bundle.
type Report struct {
	Bundle   string  `json:"bundle"`
	Checks   []Check `json:"checks"`
	Datasets int     `json:"datasets"`
	Prompts  int     `json:"prompts"`
	Projects int     `json:"projects"`
	Spans    int     `json:"spans"`
	Failed   int     `json:"failed"`
}

// Ok reports whether every check passed.
func (r *Report) Ok() bool {
	return r.Failed == 0
}

func (r *Report) add(name, target string, err error) {
	check := Check{Name: name, Target: target, OK: err == nil}
	if err != nil {
		check.Detail = err.Error()
		r.Failed++
	}
	r.Checks = append(r.Checks, check)
}

// Verifier checks bundles.
type Verifier struct {
	logger zerolog.Logger
}

// New creates a Verifier.
func New(logger zerolog.Logger) *Verifier {
	return &Verifier{logger: logger.With().Str("component", "verify").Logger()}
}

// Verify walks the bundle at dir and returns a report. The error is non-nil
// only when the directory itself is unusable; individual findings live in
// the report.
func (v *Verifier) Verify(dir string) (*Report, error) {
	b := bundle.New(dir)
	if !b.Exists() {
		return nil, errors.Wrapf(errors.ErrBundleNotFound, "%s", dir)
	}

	report := &Report{Bundle: dir}
	v.verifyDatasets(b, report)
	v.verifyPrompts(b, report)
	v.verifyProjects(b, report)
	v.verifyRequirements(b, report)

	v.logger.Info().
		Int("datasets", report.Datasets).
		Int("prompts", report.Prompts).
		Int("projects", report.Projects).
		Int("failed", report.Failed).
		Msg("Bundle verification finished")
	return report, nil
}

func (v *Verifier) verifyDatasets(b *bundle.Bundle, report *Report) {
	paths, err := bundle.ListJSONFiles(b.DatasetsDir())
	if err != nil {
		report.add("datasets_dir", b.DatasetsDir(), err)
		return
	}

	for _, path := range paths {
		var doc bundle.DatasetDocument
		err := bundle.ReadJSON(path, &doc)
		if err == nil && doc.Dataset.Name == "" {
			err = errors.Wrap(errors.ErrBundleCorrupted, "dataset document has no name")
		}
		report.add("dataset", filepath.Base(path), err)
		if err == nil {
			report.Datasets++
		}
	}
}

func (v *Verifier) verifyPrompts(b *bundle.Bundle, report *Report) {
	paths, err := bundle.ListJSONFiles(b.PromptsDir())
	if err != nil {
		report.add("prompts_dir", b.PromptsDir(), err)
		return
	}

	for _, path := range paths {
		var doc bundle.PromptDocument
		err := bundle.ReadJSON(path, &doc)
		if err == nil && doc.Prompt.Name == "" {
			err = errors.Wrap(errors.ErrBundleCorrupted, "prompt document has no name")
		}
		report.add("prompt", filepath.Base(path), err)
		if err == nil {
			report.Prompts++
		}
	}
}

func (v *Verifier) verifyProjects(b *bundle.Bundle, report *Report) {
	dirs, err := b.ListProjectDirs()
	if err != nil {
		report.add("projects_dir", b.ProjectsDir(), err)
		return
	}

	for _, dir := range dirs {
		name := filepath.Base(dir)

		var doc bundle.ProjectDocument
		if err := bundle.ReadJSON(filepath.Join(dir, constants.ProjectFileName), &doc); err != nil {
			report.add("project", name, err)
			continue
		}
		report.add("project", name, nil)
		report.Projects++

		spans, err := bundle.ReadSpans(dir)
		if err == nil && doc.SpanCount != len(spans) {
			err = errors.Wrapf(errors.ErrBundleCorrupted,
				"project records %d spans, trace file holds %d", doc.SpanCount, len(spans))
		}
		report.add("traces", name, err)
		if err == nil {
			report.Spans += len(spans)
		}

		v.verifyOptionalDoc(report, "annotations", name, filepath.Join(dir, constants.AnnotationsFileName), &bundle.AnnotationsDocument{})
		v.verifyOptionalDoc(report, "evaluations", name, filepath.Join(dir, constants.EvaluationsFileName), &bundle.EvaluationsDocument{})
	}
}

// verifyOptionalDoc checks a per-project document that is allowed to be
// absent.
func (v *Verifier) verifyOptionalDoc(report *Report, check, name, path string, out any) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}
	report.add(check, name, bundle.ReadJSON(path, out))
}

// verifyRequirements lints the optional requirements snapshot.
func (v *Verifier) verifyRequirements(b *bundle.Bundle, report *Report) {
	path := b.RequirementsPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	lint, err := manifest.LintFile(path)
	if err != nil {
		report.add("requirements", constants.RequirementsFileName, err)
		return
	}

	if !lint.Ok() {
		var first manifest.Issue
		for _, issue := range lint.Issues {
			if issue.Severity == manifest.SeverityError {
				first = issue
				break
			}
		}
		report.add("requirements", constants.RequirementsFileName,
			fmt.Errorf("%w: line %d: %s", errors.ErrManifestSyntax, first.Line, first.Message))
		return
	}
	report.add("requirements", constants.RequirementsFileName, nil)
}
