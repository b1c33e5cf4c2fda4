// Package importer drives the bundle → Arize import pipeline. Steps run in
// a fixed order (datasets, prompts, traces, evaluations, annotations) with
// operator checkpoints between trace ingestion and the steps that attach
// data to already-ingested spans.
package importer

import (
	"context"
	stderrors "errors"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phxport/phxport/internal/arize"
	"github.com/phxport/phxport/internal/bundle"
	"github.com/phxport/phxport/internal/constants"
	"github.com/phxport/phxport/internal/ctxutil"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/phoenix"
	"github.com/phxport/phxport/internal/progress"
	"github.com/phxport/phxport/internal/results"
)

// Step names, in execution order.
const (
	StepDatasets    = "datasets"
	StepPrompts     = "prompts"
	StepTraces      = "traces"
	StepEvaluations = "evaluations"
	StepAnnotations = "annotations"
)

var stepOrder = []string{StepDatasets, StepPrompts, StepTraces, StepEvaluations, StepAnnotations} //nolint:gochecknoglobals // Fixed pipeline order

// Options selects what an import run covers.
type Options struct {
	// Steps holds the selected step names. Empty means all steps.
	Steps []string

	// Projects filters the trace-derived steps to the named projects.
	Projects []string

	// ShowProgress enables terminal progress bars.
	ShowProgress bool

	// ResultsDir is where the results/ directory is created. Empty means
	// the working directory.
	ResultsDir string
}

func (o Options) selected(step string) bool {
	if len(o.Steps) == 0 {
		return true
	}
	for _, s := range o.Steps {
		if s == step {
			return true
		}
	}
	return false
}

func (o Options) wantsProject(name string) bool {
	if len(o.Projects) == 0 {
		return true
	}
	for _, p := range o.Projects {
		if p == name {
			return true
		}
	}
	return false
}

func (o Options) resultsDir() string {
	if o.ResultsDir == "" {
		return "."
	}
	return o.ResultsDir
}

// Runner executes an import run from one bundle into one Arize space.
type Runner struct {
	client  *arize.Client
	bundle  *bundle.Bundle
	confirm Confirmer
	runID   string
	logger  zerolog.Logger
}

// NewRunner creates an import runner reading from bundleDir.
func NewRunner(client *arize.Client, bundleDir string, confirm Confirmer, logger zerolog.Logger) *Runner {
	runID := uuid.New().String()
	return &Runner{
		client:  client,
		bundle:  bundle.New(bundleDir),
		confirm: confirm,
		runID:   runID,
		logger:  logger.With().Str("component", "import").Str("run_id", runID).Logger(),
	}
}

// RunID returns the identifier stamped on this run's results.
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes the selected steps in order. The checkpoint after the traces
// step waits for the operator to confirm Arize has finished ingesting before
// evaluations and annotations are attached; declining skips the guarded step
// and the run carries on. Returns ErrStepFailed if any item failed.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	if !r.bundle.Exists() {
		return errors.Wrapf(errors.ErrBundleNotFound, "%s", r.bundle.Root())
	}

	release, err := r.bundle.Lock()
	if err != nil {
		return err
	}
	defer release()

	steps := map[string]func(context.Context, Options, *results.Step) error{
		StepDatasets:    r.importDatasets,
		StepPrompts:     r.importPrompts,
		StepTraces:      r.importTraces,
		StepEvaluations: r.importEvaluations,
		StepAnnotations: r.importAnnotations,
	}

	var failed []string
	tracesRan := false
	for _, name := range stepOrder {
		if !opts.selected(name) {
			continue
		}
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		proceed, err := r.checkpoint(name, tracesRan)
		if err != nil {
			return err
		}
		step := results.NewStep(name, r.runID)
		if !proceed {
			step.Record(name, results.StatusSkipped, nil)
			if _, werr := step.Write(opts.resultsDir(), "import"); werr != nil {
				return werr
			}
			continue
		}

		r.logger.Info().Str("step", name).Msg("Starting import step")

		if err := steps[name](ctx, opts, step); err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				return err
			}
			step.Record(name, results.StatusFailed, err)
		}

		path, werr := step.Write(opts.resultsDir(), "import")
		if werr != nil {
			return werr
		}

		if name == StepTraces {
			tracesRan = true
		}

		if step.HasFailures() {
			failed = append(failed, name)
			r.logger.Error().Str("step", name).Int("failed", step.Failed).Str("results", path).Msg("Import step finished with failures")
		} else {
			r.logger.Info().Str("step", name).Int("items", step.Len()).Str("results", path).Msg("Import step finished")
		}
	}

	if len(failed) > 0 {
		return errors.Wrapf(errors.ErrStepFailed, "import steps failed: %v", failed)
	}
	return nil
}

// checkpoint runs the operator confirmations that guard span-dependent
// steps. Evaluations wait for ingestion; annotations additionally wait for
// the annotation configs from the written guide. A declined confirmation
// reports proceed=false so the caller skips the step; only a confirmer
// failure (no TTY without --yes) is an error.
func (r *Runner) checkpoint(step string, tracesRan bool) (bool, error) {
	switch step {
	case StepEvaluations:
		if !tracesRan {
			return true, nil
		}
		ok, err := r.confirm.Confirm("Spans were submitted for ingestion. Confirm ingestion has completed in Arize before attaching evaluations")
		if err != nil {
			return false, err
		}
		if !ok {
			r.logger.Warn().Msg("Evaluation import skipped, traces are not fully ingested yet. Run the import again with --evaluations when ready")
			return false, nil
		}
		return true, nil

	case StepAnnotations:
		guide, err := r.writeAnnotationGuide()
		if err != nil {
			return false, err
		}
		ok, err := r.confirm.Confirm("Annotation guide written to " + guide + ". Confirm the annotation configs exist in Arize")
		if err != nil {
			return false, err
		}
		if !ok {
			r.logger.Warn().Msg("Annotation import skipped, configure annotations in the Arize UI first. Run the import again with --annotations when ready")
			return false, nil
		}
		return true, nil

	default:
		return true, nil
	}
}

// writeAnnotationGuide aggregates every annotation in the bundle into the
// setup guide and writes it next to the bundle's projects.
func (r *Runner) writeAnnotationGuide() (string, error) {
	docs, err := r.annotationDocs()
	if err != nil {
		return "", err
	}

	var flat []phoenix.SpanAnnotation
	for _, doc := range docs {
		flat = append(flat, doc.Annotations...)
	}

	path := filepath.Join(r.bundle.Root(), constants.AnnotationGuideFileName)
	if err := WriteGuide(path, BuildAnnotationGuide(flat)); err != nil {
		return "", err
	}
	return path, nil
}

// annotationDocs reads every project's annotations document. Projects
// without one are skipped.
func (r *Runner) annotationDocs() ([]bundle.AnnotationsDocument, error) {
	dirs, err := r.bundle.ListProjectDirs()
	if err != nil {
		return nil, err
	}

	var docs []bundle.AnnotationsDocument
	for _, dir := range dirs {
		var doc bundle.AnnotationsDocument
		if err := bundle.ReadJSON(filepath.Join(dir, constants.AnnotationsFileName), &doc); err != nil {
			if stderrors.Is(err, errors.ErrBundleNotFound) {
				continue
			}
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *Runner) importDatasets(ctx context.Context, opts Options, step *results.Step) error {
	paths, err := bundle.ListJSONFiles(r.bundle.DatasetsDir())
	if err != nil {
		return err
	}

	bar := progress.New("Importing datasets", len(paths), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	for _, path := range paths {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		var doc bundle.DatasetDocument
		if err := bundle.ReadJSON(path, &doc); err != nil {
			step.Record(filepath.Base(path), results.StatusFailed, err)
			_ = bar.Add(1)
			continue
		}

		status, err := r.importDataset(ctx, doc)
		step.Record(doc.Dataset.Name, status, err)
		if err != nil {
			r.logger.Error().Err(err).Str("dataset", doc.Dataset.Name).Msg("Failed to import dataset")
		}
		_ = bar.Add(1)
	}
	return nil
}

func (r *Runner) importDataset(ctx context.Context, doc bundle.DatasetDocument) (string, error) {
	id, err := r.client.CreateDataset(ctx, doc.Dataset.Name, doc.Dataset.Description)
	if err != nil {
		if stderrors.Is(err, errors.ErrAlreadyExists) {
			return results.StatusAlreadyExists, nil
		}
		return results.StatusFailed, err
	}

	if err := r.client.AddDatasetExamples(ctx, id, doc.Examples); err != nil {
		return results.StatusFailed, err
	}
	return results.StatusImported, nil
}

func (r *Runner) importPrompts(ctx context.Context, opts Options, step *results.Step) error {
	paths, err := bundle.ListJSONFiles(r.bundle.PromptsDir())
	if err != nil {
		return err
	}

	bar := progress.New("Importing prompts", len(paths), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	for _, path := range paths {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		var doc bundle.PromptDocument
		if err := bundle.ReadJSON(path, &doc); err != nil {
			step.Record(filepath.Base(path), results.StatusFailed, err)
			_ = bar.Add(1)
			continue
		}

		status := results.StatusImported
		err := r.client.CreatePrompt(ctx, doc.Prompt, doc.Versions)
		switch {
		case stderrors.Is(err, errors.ErrAlreadyExists):
			status, err = results.StatusAlreadyExists, nil
		case err != nil:
			status = results.StatusFailed
			r.logger.Error().Err(err).Str("prompt", doc.Prompt.Name).Msg("Failed to import prompt")
		}
		step.Record(doc.Prompt.Name, status, err)
		_ = bar.Add(1)
	}
	return nil
}

// projectDocs reads every project document, applying the --project filter.
func (r *Runner) projectDocs(opts Options) ([]bundle.ProjectDocument, []string, error) {
	dirs, err := r.bundle.ListProjectDirs()
	if err != nil {
		return nil, nil, err
	}

	var docs []bundle.ProjectDocument
	var docDirs []string
	for _, dir := range dirs {
		var doc bundle.ProjectDocument
		if err := bundle.ReadJSON(filepath.Join(dir, constants.ProjectFileName), &doc); err != nil {
			return nil, nil, err
		}
		if !opts.wantsProject(doc.Project.Name) {
			continue
		}
		docs = append(docs, doc)
		docDirs = append(docDirs, dir)
	}
	return docs, docDirs, nil
}

func (r *Runner) importTraces(ctx context.Context, opts Options, step *results.Step) error {
	docs, dirs, err := r.projectDocs(opts)
	if err != nil {
		return err
	}

	bar := progress.New("Importing traces", len(docs), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	for i, doc := range docs {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		spans, err := bundle.ReadSpans(dirs[i])
		if err != nil {
			step.Record(doc.Project.Name, results.StatusFailed, err)
			_ = bar.Add(1)
			continue
		}
		if len(spans) == 0 {
			step.Record(doc.Project.Name, results.StatusSkipped, nil)
			_ = bar.Add(1)
			continue
		}

		if err := r.client.IngestSpans(ctx, doc.Project.Name, spans); err != nil {
			step.Record(doc.Project.Name, results.StatusFailed, err)
			r.logger.Error().Err(err).Str("project", doc.Project.Name).Msg("Failed to ingest spans")
		} else {
			step.Record(doc.Project.Name, results.StatusImported, nil)
		}
		_ = bar.Add(1)
	}
	return nil
}

func (r *Runner) importEvaluations(ctx context.Context, opts Options, step *results.Step) error {
	docs, dirs, err := r.projectDocs(opts)
	if err != nil {
		return err
	}

	bar := progress.New("Importing evaluations", len(docs), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	for i, doc := range docs {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		var evalDoc bundle.EvaluationsDocument
		if err := bundle.ReadJSON(filepath.Join(dirs[i], constants.EvaluationsFileName), &evalDoc); err != nil {
			if stderrors.Is(err, errors.ErrBundleNotFound) {
				step.Record(doc.Project.Name, results.StatusSkipped, nil)
				_ = bar.Add(1)
				continue
			}
			step.Record(doc.Project.Name, results.StatusFailed, err)
			_ = bar.Add(1)
			continue
		}

		if len(evalDoc.Evaluations) == 0 {
			step.Record(doc.Project.Name, results.StatusSkipped, nil)
			_ = bar.Add(1)
			continue
		}

		if err := r.client.LogEvaluations(ctx, doc.Project.Name, evalDoc.Evaluations); err != nil {
			step.Record(doc.Project.Name, results.StatusFailed, err)
			r.logger.Error().Err(err).Str("project", doc.Project.Name).Msg("Failed to log evaluations")
		} else {
			step.Record(doc.Project.Name, results.StatusImported, nil)
		}
		_ = bar.Add(1)
	}
	return nil
}

func (r *Runner) importAnnotations(ctx context.Context, opts Options, step *results.Step) error {
	docs, dirs, err := r.projectDocs(opts)
	if err != nil {
		return err
	}

	bar := progress.New("Importing annotations", len(docs), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	for i, doc := range docs {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		var annDoc bundle.AnnotationsDocument
		if err := bundle.ReadJSON(filepath.Join(dirs[i], constants.AnnotationsFileName), &annDoc); err != nil {
			if stderrors.Is(err, errors.ErrBundleNotFound) {
				step.Record(doc.Project.Name, results.StatusSkipped, nil)
				_ = bar.Add(1)
				continue
			}
			step.Record(doc.Project.Name, results.StatusFailed, err)
			_ = bar.Add(1)
			continue
		}

		if len(annDoc.Annotations) == 0 {
			step.Record(doc.Project.Name, results.StatusSkipped, nil)
			_ = bar.Add(1)
			continue
		}

		if err := r.client.LogAnnotations(ctx, doc.Project.Name, annDoc.Annotations); err != nil {
			step.Record(doc.Project.Name, results.StatusFailed, err)
			r.logger.Error().Err(err).Str("project", doc.Project.Name).Msg("Failed to log annotations")
		} else {
			step.Record(doc.Project.Name, results.StatusImported, nil)
		}
		_ = bar.Add(1)
	}
	return nil
}
