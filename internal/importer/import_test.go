package importer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/phxport/phxport/internal/arize"
	"github.com/phxport/phxport/internal/bundle"
	"github.com/phxport/phxport/internal/config"
	"github.com/phxport/phxport/internal/constants"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/phoenix"
	"github.com/phxport/phxport/internal/results"
	"github.com/phxport/phxport/internal/transport"
)

// writeTestBundle lays down a bundle with one dataset, one prompt and one
// project carrying spans, annotations and evaluations.
func writeTestBundle(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "bundle")
	b := bundle.New(dir)

	require.NoError(t, bundle.WriteJSON(filepath.Join(b.DatasetsDir(), "golden-set.json"), bundle.DatasetDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		Dataset:       phoenix.Dataset{ID: "ds-1", Name: "golden set"},
		Examples:      []phoenix.DatasetExample{{ID: "ex-1", Input: map[string]any{"q": "hi"}}},
	}))

	require.NoError(t, bundle.WriteJSON(filepath.Join(b.PromptsDir(), "summarizer.json"), bundle.PromptDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		Prompt:        phoenix.Prompt{ID: "pr-1", Name: "summarizer"},
		Versions:      []phoenix.PromptVersion{{ID: "v1", Template: json.RawMessage(`{"messages":[]}`)}},
	}))

	projDir, err := b.ProjectDir("prod")
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	spans := []phoenix.Span{{SpanID: "span-1", TraceID: "trace-1", Name: "llm", StartTime: start, EndTime: start.Add(time.Second)}}
	_, err = bundle.WriteSpans(projDir, spans, constants.CodecJSONL)
	require.NoError(t, err)

	require.NoError(t, bundle.WriteJSON(filepath.Join(projDir, constants.ProjectFileName), bundle.ProjectDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		Project:       phoenix.Project{ID: "p-1", Name: "prod"},
		SpanCount:     1,
		SpanCodec:     constants.CodecJSONL,
	}))

	score := 0.75
	require.NoError(t, bundle.WriteJSON(filepath.Join(projDir, constants.AnnotationsFileName), bundle.AnnotationsDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		ProjectName:   "prod",
		Annotations: []phoenix.SpanAnnotation{
			{ID: "a-1", SpanID: "span-1", Name: "quality", AnnotatorKind: "HUMAN", Result: phoenix.AnnotationResult{Label: "good", Score: &score}},
		},
	}))

	require.NoError(t, bundle.WriteJSON(filepath.Join(projDir, constants.EvaluationsFileName), bundle.EvaluationsDocument{
		SchemaVersion: constants.BundleSchemaVersion,
		ProjectName:   "prod",
		Evaluations:   []phoenix.Evaluation{{SpanID: "span-1", Name: "relevance", Label: "relevant"}},
	}))

	return dir
}

type fakeArize struct {
	srv *httptest.Server

	datasets    atomic.Int32
	examples    atomic.Int32
	prompts     atomic.Int32
	spans       atomic.Int32
	evaluations atomic.Int32
	annotations atomic.Int32

	datasetConflict bool
}

func newFakeArize(t *testing.T) *fakeArize {
	t.Helper()

	f := &fakeArize{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/spaces/space-1/datasets", func(w http.ResponseWriter, _ *http.Request) {
		if f.datasetConflict {
			http.Error(w, `{"detail":"exists"}`, http.StatusConflict)
			return
		}
		f.datasets.Add(1)
		_, _ = w.Write([]byte(`{"id":"ds-new"}`))
	})
	mux.HandleFunc("/v1/spaces/space-1/datasets/ds-new/examples", func(w http.ResponseWriter, _ *http.Request) {
		f.examples.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/spaces/space-1/prompts", func(w http.ResponseWriter, _ *http.Request) {
		f.prompts.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/spaces/space-1/projects/spans", func(w http.ResponseWriter, _ *http.Request) {
		f.spans.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/spaces/space-1/evaluations", func(w http.ResponseWriter, _ *http.Request) {
		f.evaluations.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/spaces/space-1/annotations", func(w http.ResponseWriter, _ *http.Request) {
		f.annotations.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestRunner(t *testing.T, f *fakeArize, bundleDir string, confirm Confirmer) *Runner {
	t.Helper()

	client, err := arize.NewClient(
		config.ArizeConfig{Endpoint: f.srv.URL, APIKey: "k", SpaceID: "space-1", Timeout: time.Second},
		transport.Policy{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1},
		zerolog.Nop(),
	)
	require.NoError(t, err)
	return NewRunner(client, bundleDir, confirm, zerolog.Nop())
}

// TestRun_FullImport verifies every step reaches the API and results files
// are written.
func TestRun_FullImport(t *testing.T) {
	t.Parallel()

	bundleDir := writeTestBundle(t)
	f := newFakeArize(t)
	r := newTestRunner(t, f, bundleDir, AutoConfirmer{})

	resultsDir := t.TempDir()
	require.NoError(t, r.Run(context.Background(), Options{ResultsDir: resultsDir}))

	assert.Equal(t, int32(1), f.datasets.Load())
	assert.Equal(t, int32(1), f.examples.Load())
	assert.Equal(t, int32(1), f.prompts.Load())
	assert.Equal(t, int32(1), f.spans.Load())
	assert.Equal(t, int32(1), f.evaluations.Load())
	assert.Equal(t, int32(1), f.annotations.Load())

	for _, name := range []string{"dataset", "prompt", "trace", "evaluation", "annotation"} {
		assert.FileExists(t, filepath.Join(resultsDir, constants.ResultsDir, name+"_import_results.json"))
	}
	assert.FileExists(t, filepath.Join(bundleDir, constants.AnnotationGuideFileName))
}

// TestRun_DatasetAlreadyExists verifies a 409 records already_exists and
// skips the example upload.
func TestRun_DatasetAlreadyExists(t *testing.T) {
	t.Parallel()

	bundleDir := writeTestBundle(t)
	f := newFakeArize(t)
	f.datasetConflict = true
	r := newTestRunner(t, f, bundleDir, AutoConfirmer{})

	resultsDir := t.TempDir()
	require.NoError(t, r.Run(context.Background(), Options{Steps: []string{StepDatasets}, ResultsDir: resultsDir}))

	assert.Equal(t, int32(0), f.examples.Load())

	var step results.Step
	require.NoError(t, bundle.ReadJSON(filepath.Join(resultsDir, constants.ResultsDir, "dataset_import_results.json"), &step))
	require.Len(t, step.Items, 1)
	assert.Equal(t, results.StatusAlreadyExists, step.Items[0].Status)
}

// declineConfirmer answers no to everything.
type declineConfirmer struct{}

func (declineConfirmer) Confirm(string) (bool, error) { return false, nil }

// TestRun_DeclinedCheckpointsSkipGuardedSteps verifies saying no at a
// checkpoint skips that step and the run still finishes cleanly: traces go
// through, evaluations and annotations are recorded skipped and never reach
// the API, and the annotation guide is still written.
func TestRun_DeclinedCheckpointsSkipGuardedSteps(t *testing.T) {
	t.Parallel()

	bundleDir := writeTestBundle(t)
	f := newFakeArize(t)
	r := newTestRunner(t, f, bundleDir, declineConfirmer{})

	resultsDir := t.TempDir()
	require.NoError(t, r.Run(context.Background(), Options{ResultsDir: resultsDir}))

	assert.Equal(t, int32(1), f.spans.Load())
	assert.Equal(t, int32(0), f.evaluations.Load())
	assert.Equal(t, int32(0), f.annotations.Load())
	assert.FileExists(t, filepath.Join(bundleDir, constants.AnnotationGuideFileName))

	for _, name := range []string{"evaluation", "annotation"} {
		var step results.Step
		require.NoError(t, bundle.ReadJSON(filepath.Join(resultsDir, constants.ResultsDir, name+"_import_results.json"), &step))
		require.Len(t, step.Items, 1)
		assert.Equal(t, results.StatusSkipped, step.Items[0].Status)
	}
}

// TestRun_EvaluationsWithoutTracesSkipsCheckpoint verifies the ingestion
// checkpoint only fires when traces ran in the same invocation.
func TestRun_EvaluationsWithoutTracesSkipsCheckpoint(t *testing.T) {
	t.Parallel()

	bundleDir := writeTestBundle(t)
	f := newFakeArize(t)
	r := newTestRunner(t, f, bundleDir, declineConfirmer{})

	err := r.Run(context.Background(), Options{Steps: []string{StepEvaluations}, ResultsDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.evaluations.Load())
}

// TestRun_MissingBundle verifies a missing directory is an input error.
func TestRun_MissingBundle(t *testing.T) {
	t.Parallel()

	f := newFakeArize(t)
	r := newTestRunner(t, f, filepath.Join(t.TempDir(), "nope"), AutoConfirmer{})

	err := r.Run(context.Background(), Options{ResultsDir: t.TempDir()})
	require.ErrorIs(t, err, errors.ErrBundleNotFound)
}

// TestAnnotationGuideContents verifies the YAML guide aggregates labels and
// score ranges per annotation name.
func TestAnnotationGuideContents(t *testing.T) {
	t.Parallel()

	bundleDir := writeTestBundle(t)
	f := newFakeArize(t)
	r := newTestRunner(t, f, bundleDir, AutoConfirmer{})

	require.NoError(t, r.Run(context.Background(), Options{Steps: []string{StepAnnotations}, ResultsDir: t.TempDir()}))

	data, err := os.ReadFile(filepath.Join(bundleDir, constants.AnnotationGuideFileName))
	require.NoError(t, err)

	var guide AnnotationGuide
	require.NoError(t, yaml.Unmarshal(data, &guide))
	require.Len(t, guide.Annotations, 1)

	entry := guide.Annotations[0]
	assert.Equal(t, "quality", entry.Name)
	assert.Equal(t, "HUMAN", entry.AnnotatorKind)
	assert.Equal(t, []string{"good"}, entry.Labels)
	require.NotNil(t, entry.ScoreMin)
	assert.InDelta(t, 0.75, *entry.ScoreMin, 0.0001)
	assert.Equal(t, 1, entry.Count)
}

// TestTerminalConfirmer covers answers and the non-interactive guard.
func TestTerminalConfirmer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "yes word", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "default is no", input: "\n", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out strings.Builder
			c := &TerminalConfirmer{
				In:         strings.NewReader(tt.input),
				Out:        &out,
				IsTerminal: func() bool { return true },
			}
			got, err := c.Confirm("continue")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "[y/N]")
		})
	}
}

func TestTerminalConfirmerNonInteractive(t *testing.T) {
	t.Parallel()

	c := &TerminalConfirmer{
		In:         strings.NewReader(""),
		Out:        &strings.Builder{},
		IsTerminal: func() bool { return false },
	}
	_, err := c.Confirm("continue")
	require.ErrorIs(t, err, errors.ErrNonInteractiveMode)
}
