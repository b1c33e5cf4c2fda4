// Package export drives the Phoenix → bundle export pipeline. Steps run in
// a fixed order (datasets, prompts, traces, annotations, evaluations); a
// failed item or step is recorded in its results file and the run carries
// on, so one broken project never blocks the rest of an export.
package export

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/phxport/phxport/internal/bundle"
	"github.com/phxport/phxport/internal/config"
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
	StepAnnotations = "annotations"
	StepEvaluations = "evaluations"
)

// stepOrder is the fixed execution order of export steps.
var stepOrder = []string{StepDatasets, StepPrompts, StepTraces, StepAnnotations, StepEvaluations} //nolint:gochecknoglobals // Fixed pipeline order

// Options selects what an export run covers.
type Options struct {
	// Steps holds the selected step names. Empty means all steps.
	Steps []string

	// Projects filters the traces/annotations/evaluations steps to the
	// named projects. Empty means every project.
	Projects []string

	// ShowProgress enables terminal progress bars.
	ShowProgress bool

	// ResultsDir is where the results/ directory is created. Empty means
	// the working directory.
	ResultsDir string
}

func (o Options) resultsDir() string {
	if o.ResultsDir == "" {
		return "."
	}
	return o.ResultsDir
}

// selected reports whether a step is part of this run.
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

// wantsProject reports whether a project passes the --project filter.
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

// stepTime stamps exported documents; a hook so tests get stable output.
var stepTime = func() time.Time { return time.Now().UTC() } //nolint:gochecknoglobals // Test hook

// Runner executes an export run against one Phoenix server.
type Runner struct {
	client *phoenix.Client
	cfg    config.ExportConfig
	bundle *bundle.Bundle
	runID  string
	logger zerolog.Logger

	mu      sync.Mutex
	spanIDs map[string][]string // project name -> span IDs seen during the traces step
}

// NewRunner creates an export runner writing into cfg.Dir.
func NewRunner(client *phoenix.Client, cfg config.ExportConfig, logger zerolog.Logger) *Runner {
	runID := uuid.New().String()
	return &Runner{
		client:  client,
		cfg:     cfg,
		bundle:  bundle.New(cfg.Dir),
		runID:   runID,
		logger:  logger.With().Str("component", "export").Str("run_id", runID).Logger(),
		spanIDs: make(map[string][]string),
	}
}

// RunID returns the identifier stamped on this run's documents and results.
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes the selected steps in order and writes one results file per
// step. The bundle directory is locked for the duration of the run. Returns
// ErrStepFailed if any item in any step failed.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	release, err := r.bundle.Lock()
	if err != nil {
		return err
	}
	defer release()

	steps := map[string]func(context.Context, Options, *results.Step) error{
		StepDatasets:    r.exportDatasets,
		StepPrompts:     r.exportPrompts,
		StepTraces:      r.exportTraces,
		StepAnnotations: r.exportAnnotations,
		StepEvaluations: r.exportEvaluations,
	}

	var failed []string
	for _, name := range stepOrder {
		if !opts.selected(name) {
			continue
		}
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		r.logger.Info().Str("step", name).Msg("Starting export step")
		step := results.NewStep(name, r.runID)

		if err := steps[name](ctx, opts, step); err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				return err
			}
			// A step-level failure (e.g. the listing call itself) is
			// recorded under the step's own name.
			step.Record(name, results.StatusFailed, err)
		}

		path, werr := step.Write(opts.resultsDir(), "export")
		if werr != nil {
			return werr
		}

		if step.HasFailures() {
			failed = append(failed, name)
			r.logger.Error().Str("step", name).Int("failed", step.Failed).Str("results", path).Msg("Export step finished with failures")
		} else {
			r.logger.Info().Str("step", name).Int("items", step.Len()).Str("results", path).Msg("Export step finished")
		}
	}

	if len(failed) > 0 {
		return errors.Wrapf(errors.ErrStepFailed, "export steps failed: %v", failed)
	}
	return nil
}

func (r *Runner) exportDatasets(ctx context.Context, opts Options, step *results.Step) error {
	datasets, err := r.client.ListDatasets(ctx)
	if err != nil {
		return err
	}

	bar := progress.New("Exporting datasets", len(datasets), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	for _, ds := range datasets {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		if err := r.exportDataset(ctx, ds); err != nil {
			step.Record(ds.Name, results.StatusFailed, err)
			r.logger.Error().Err(err).Str("dataset", ds.Name).Msg("Failed to export dataset")
		} else {
			step.Record(ds.Name, results.StatusExported, nil)
		}
		_ = bar.Add(1)
	}
	return nil
}

func (r *Runner) exportDataset(ctx context.Context, ds phoenix.Dataset) error {
	versions, err := r.client.ListDatasetVersions(ctx, ds.ID)
	if err != nil {
		return err
	}

	examples, err := r.client.ListDatasetExamples(ctx, ds.ID)
	if err != nil {
		return err
	}

	slug, err := bundle.Slugify(ds.Name)
	if err != nil {
		return err
	}

	doc := bundle.DatasetDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		Dataset:       ds,
		Versions:      versions,
		Examples:      examples,
		ExportedAt:    stepTime(),
	}
	return bundle.WriteJSON(filepath.Join(r.bundle.DatasetsDir(), slug+".json"), doc)
}

func (r *Runner) exportPrompts(ctx context.Context, opts Options, step *results.Step) error {
	prompts, err := r.client.ListPrompts(ctx)
	if err != nil {
		return err
	}

	bar := progress.New("Exporting prompts", len(prompts), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	for _, p := range prompts {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		if err := r.exportPrompt(ctx, p); err != nil {
			step.Record(p.Name, results.StatusFailed, err)
			r.logger.Error().Err(err).Str("prompt", p.Name).Msg("Failed to export prompt")
		} else {
			step.Record(p.Name, results.StatusExported, nil)
		}
		_ = bar.Add(1)
	}
	return nil
}

func (r *Runner) exportPrompt(ctx context.Context, p phoenix.Prompt) error {
	versions, err := r.client.ListPromptVersions(ctx, p.ID)
	if err != nil {
		return err
	}

	slug, err := bundle.Slugify(p.Name)
	if err != nil {
		return err
	}

	doc := bundle.PromptDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		Prompt:        p,
		Versions:      versions,
		ExportedAt:    stepTime(),
	}
	return bundle.WriteJSON(filepath.Join(r.bundle.PromptsDir(), slug+".json"), doc)
}

// filteredProjects lists projects and applies the --project filter.
func (r *Runner) filteredProjects(ctx context.Context, opts Options) ([]phoenix.Project, error) {
	projects, err := r.client.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	var selected []phoenix.Project
	for _, p := range projects {
		if opts.wantsProject(p.Name) {
			selected = append(selected, p)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Name < selected[j].Name })
	return selected, nil
}

// slugCollisions maps project names whose bundle directory would clash with
// another project's to a descriptive error. Slugs fold case and collapse
// special characters, so distinct remote names can land on one directory.
func slugCollisions(projects []phoenix.Project) map[string]error {
	seen := make(map[string]string)
	clashes := make(map[string]error)
	for _, p := range projects {
		slug, err := bundle.Slugify(p.Name)
		if err != nil {
			clashes[p.Name] = err
			continue
		}
		if first, ok := seen[slug]; ok {
			clashes[p.Name] = errors.Wrapf(errors.ErrInvalidArgument,
				"project %q maps to bundle directory %q already claimed by project %q", p.Name, slug, first)
			continue
		}
		seen[slug] = p.Name
	}
	return clashes
}

func (r *Runner) exportTraces(ctx context.Context, opts Options, step *results.Step) error {
	projects, err := r.filteredProjects(ctx, opts)
	if err != nil {
		return err
	}
	clashes := slugCollisions(projects)

	bar := progress.New("Exporting traces", len(projects), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, p := range projects {
		p := p
		g.Go(func() error {
			if err := ctxutil.Canceled(gctx); err != nil {
				return err
			}

			if cerr := clashes[p.Name]; cerr != nil {
				step.Record(p.Name, results.StatusFailed, cerr)
				r.logger.Error().Err(cerr).Str("project", p.Name).Msg("Failed to export traces")
				_ = bar.Add(1)
				return nil
			}

			if err := r.exportProjectTraces(gctx, p); err != nil {
				if stderrors.Is(err, context.Canceled) {
					return err
				}
				step.Record(p.Name, results.StatusFailed, err)
				r.logger.Error().Err(err).Str("project", p.Name).Msg("Failed to export traces")
			} else {
				step.Record(p.Name, results.StatusExported, nil)
			}
			_ = bar.Add(1)
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) exportProjectTraces(ctx context.Context, p phoenix.Project) error {
	spans, err := r.client.ListSpans(ctx, p.Name)
	if err != nil {
		return err
	}

	dir, err := r.bundle.ProjectDir(p.Name)
	if err != nil {
		return err
	}

	if _, err := bundle.WriteSpans(dir, spans, r.cfg.SpanCodec); err != nil {
		return err
	}

	doc := bundle.ProjectDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		Project:       p,
		SpanCount:     len(spans),
		SpanCodec:     r.cfg.SpanCodec,
		ExportedAt:    stepTime(),
		RunID:         r.runID,
	}
	if err := bundle.WriteJSON(filepath.Join(dir, constants.ProjectFileName), doc); err != nil {
		return err
	}

	ids := make([]string, 0, len(spans))
	for _, s := range spans {
		ids = append(ids, s.SpanID)
	}
	r.mu.Lock()
	r.spanIDs[p.Name] = ids
	r.mu.Unlock()
	return nil
}

// projectSpanIDs returns the span IDs of a project, reusing what the
// traces step already collected in this run and falling back to the bundle
// on disk, then to the API.
func (r *Runner) projectSpanIDs(ctx context.Context, p phoenix.Project) ([]string, error) {
	r.mu.Lock()
	ids, ok := r.spanIDs[p.Name]
	r.mu.Unlock()
	if ok {
		return ids, nil
	}

	if dir, err := r.bundle.ProjectDir(p.Name); err == nil {
		if spans, err := bundle.ReadSpans(dir); err == nil {
			ids = make([]string, 0, len(spans))
			for _, s := range spans {
				ids = append(ids, s.SpanID)
			}
			return ids, nil
		}
	}

	spans, err := r.client.ListSpans(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	ids = make([]string, 0, len(spans))
	for _, s := range spans {
		ids = append(ids, s.SpanID)
	}
	return ids, nil
}

func (r *Runner) exportAnnotations(ctx context.Context, opts Options, step *results.Step) error {
	projects, err := r.filteredProjects(ctx, opts)
	if err != nil {
		return err
	}

	clashes := slugCollisions(projects)
	bar := progress.New("Exporting annotations", len(projects), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	for _, p := range projects {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		if cerr := clashes[p.Name]; cerr != nil {
			step.Record(p.Name, results.StatusFailed, cerr)
			_ = bar.Add(1)
			continue
		}

		if err := r.exportProjectAnnotations(ctx, p); err != nil {
			step.Record(p.Name, results.StatusFailed, err)
			r.logger.Error().Err(err).Str("project", p.Name).Msg("Failed to export annotations")
		} else {
			step.Record(p.Name, results.StatusExported, nil)
		}
		_ = bar.Add(1)
	}
	return nil
}

func (r *Runner) exportProjectAnnotations(ctx context.Context, p phoenix.Project) error {
	ids, err := r.projectSpanIDs(ctx, p)
	if err != nil {
		return err
	}

	annotations, err := r.client.ListSpanAnnotations(ctx, p.Name, ids)
	if err != nil {
		return err
	}

	dir, err := r.bundle.ProjectDir(p.Name)
	if err != nil {
		return err
	}

	doc := bundle.AnnotationsDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		ProjectName:   p.Name,
		Annotations:   annotations,
	}
	return bundle.WriteJSON(filepath.Join(dir, constants.AnnotationsFileName), doc)
}

func (r *Runner) exportEvaluations(ctx context.Context, opts Options, step *results.Step) error {
	projects, err := r.filteredProjects(ctx, opts)
	if err != nil {
		return err
	}

	clashes := slugCollisions(projects)
	bar := progress.New("Exporting evaluations", len(projects), opts.ShowProgress)
	defer func() { _ = bar.Finish() }()

	for _, p := range projects {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}

		if cerr := clashes[p.Name]; cerr != nil {
			step.Record(p.Name, results.StatusFailed, cerr)
			_ = bar.Add(1)
			continue
		}

		if err := r.exportProjectEvaluations(ctx, p); err != nil {
			step.Record(p.Name, results.StatusFailed, err)
			r.logger.Error().Err(err).Str("project", p.Name).Msg("Failed to export evaluations")
		} else {
			step.Record(p.Name, results.StatusExported, nil)
		}
		_ = bar.Add(1)
	}
	return nil
}

func (r *Runner) exportProjectEvaluations(ctx context.Context, p phoenix.Project) error {
	evals, err := r.client.ListEvaluations(ctx, p.Name)
	if err != nil {
		return err
	}

	dir, err := r.bundle.ProjectDir(p.Name)
	if err != nil {
		return err
	}

	doc := bundle.EvaluationsDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		ProjectName:   p.Name,
		Evaluations:   evals,
	}
	return bundle.WriteJSON(filepath.Join(dir, constants.EvaluationsFileName), doc)
}
