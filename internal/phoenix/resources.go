package phoenix

import (
	"context"
	"net/url"
	"strings"
)

// ListDatasets returns all datasets on the server.
func (c *Client) ListDatasets(ctx context.Context) ([]Dataset, error) {
	return drain[Dataset](ctx, c, "/v1/datasets", nil)
}

// ListDatasetVersions returns every version of a dataset, oldest first.
func (c *Client) ListDatasetVersions(ctx context.Context, datasetID string) ([]DatasetVersion, error) {
	return drain[DatasetVersion](ctx, c, "/v1/datasets/"+url.PathEscape(datasetID)+"/versions", nil)
}

// ListDatasetExamples returns every example of the latest dataset version.
func (c *Client) ListDatasetExamples(ctx context.Context, datasetID string) ([]DatasetExample, error) {
	return drain[DatasetExample](ctx, c, "/v1/datasets/"+url.PathEscape(datasetID)+"/examples", nil)
}

// ListPrompts returns all prompt identities on the server.
func (c *Client) ListPrompts(ctx context.Context) ([]Prompt, error) {
	return drain[Prompt](ctx, c, "/v1/prompts", nil)
}

// ListPromptVersions returns every version of a prompt, oldest first.
func (c *Client) ListPromptVersions(ctx context.Context, promptID string) ([]PromptVersion, error) {
	return drain[PromptVersion](ctx, c, "/v1/prompts/"+url.PathEscape(promptID)+"/versions", nil)
}

// ListProjects returns all projects on the server.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	return drain[Project](ctx, c, "/v1/projects", nil)
}

// ListSpans returns every span of a project. Projects are addressed by name,
// matching the Phoenix API.
func (c *Client) ListSpans(ctx context.Context, projectName string) ([]Span, error) {
	return drain[Span](ctx, c, "/v1/projects/"+url.PathEscape(projectName)+"/spans", nil)
}

// annotationBatchSize bounds how many span IDs go into one span_ids query
// parameter, keeping URLs well under server limits.
const annotationBatchSize = 50

// ListSpanAnnotations returns the annotations attached to the given spans.
// The server takes span IDs in batches; results are concatenated.
func (c *Client) ListSpanAnnotations(ctx context.Context, projectName string, spanIDs []string) ([]SpanAnnotation, error) {
	var all []SpanAnnotation
	path := "/v1/projects/" + url.PathEscape(projectName) + "/span_annotations"

	for start := 0; start < len(spanIDs); start += annotationBatchSize {
		end := min(start+annotationBatchSize, len(spanIDs))

		query := url.Values{}
		query.Set("span_ids", strings.Join(spanIDs[start:end], ","))

		batch, err := drain[SpanAnnotation](ctx, c, path, query)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}

	return all, nil
}

// ListEvaluations returns the span evaluations recorded for a project.
func (c *Client) ListEvaluations(ctx context.Context, projectName string) ([]Evaluation, error) {
	query := url.Values{}
	query.Set("project_name", projectName)
	return drain[Evaluation](ctx, c, "/v1/evaluations", query)
}
