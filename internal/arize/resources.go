package arize

import (
	"context"

	"github.com/phxport/phxport/internal/phoenix"
)

// spanBatchSize bounds one span ingestion request. The ingestion endpoint
// rejects oversized payloads, so large trace files are chunked.
const spanBatchSize = 500

// CreateDataset creates a dataset in the space and returns its ID. A
// dataset with the same name surfaces as errors.ErrAlreadyExists.
func (c *Client) CreateDataset(ctx context.Context, name, description string) (string, error) {
	payload := map[string]any{
		"name":        name,
		"description": description,
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, c.spacePath("/datasets"), payload, &resp); err != nil {
		return "", err
	}

	c.logger.Info().Str("dataset", name).Str("id", resp.ID).Msg("Created dataset")
	return resp.ID, nil
}

// AddDatasetExamples uploads example rows into a dataset.
func (c *Client) AddDatasetExamples(ctx context.Context, datasetID string, examples []phoenix.DatasetExample) error {
	if len(examples) == 0 {
		return nil
	}

	payload := map[string]any{
		"examples": examples,
	}
	if err := c.post(ctx, c.spacePath("/datasets/"+datasetID+"/examples"), payload, nil); err != nil {
		return err
	}

	c.logger.Debug().Str("dataset_id", datasetID).Int("examples", len(examples)).Msg("Uploaded dataset examples")
	return nil
}

// CreatePrompt creates a prompt with its version history. A prompt with the
// same name surfaces as errors.ErrAlreadyExists.
func (c *Client) CreatePrompt(ctx context.Context, prompt phoenix.Prompt, versions []phoenix.PromptVersion) error {
	payload := map[string]any{
		"name":        prompt.Name,
		"description": prompt.Description,
		"versions":    versions,
	}
	if err := c.post(ctx, c.spacePath("/prompts"), payload, nil); err != nil {
		return err
	}

	c.logger.Info().Str("prompt", prompt.Name).Int("versions", len(versions)).Msg("Created prompt")
	return nil
}

// IngestSpans sends spans into a project, creating the project on first
// write. Spans are sent in batches of spanBatchSize.
func (c *Client) IngestSpans(ctx context.Context, projectName string, spans []phoenix.Span) error {
	path := c.spacePath("/projects/spans")

	for start := 0; start < len(spans); start += spanBatchSize {
		end := min(start+spanBatchSize, len(spans))

		payload := map[string]any{
			"project_name": projectName,
			"spans":        spans[start:end],
		}
		if err := c.post(ctx, path, payload, nil); err != nil {
			return err
		}
		c.logger.Debug().
			Str("project", projectName).
			Int("batch", end-start).
			Int("sent", end).
			Int("total", len(spans)).
			Msg("Ingested span batch")
	}
	return nil
}

// LogEvaluations attaches evaluation results to previously ingested spans.
// Requires a developer key on spaces where the evaluation API is gated.
func (c *Client) LogEvaluations(ctx context.Context, projectName string, evals []phoenix.Evaluation) error {
	if len(evals) == 0 {
		return nil
	}

	payload := map[string]any{
		"project_name": projectName,
		"evaluations":  evals,
	}
	if err := c.post(ctx, c.spacePath("/evaluations"), payload, nil); err != nil {
		return err
	}

	c.logger.Debug().Str("project", projectName).Int("evaluations", len(evals)).Msg("Logged evaluations")
	return nil
}

// LogAnnotations attaches span annotations to previously ingested spans.
func (c *Client) LogAnnotations(ctx context.Context, projectName string, annotations []phoenix.SpanAnnotation) error {
	if len(annotations) == 0 {
		return nil
	}

	payload := map[string]any{
		"project_name": projectName,
		"annotations":  annotations,
	}
	if err := c.post(ctx, c.spacePath("/annotations"), payload, nil); err != nil {
		return err
	}

	c.logger.Debug().Str("project", projectName).Int("annotations", len(annotations)).Msg("Logged annotations")
	return nil
}
