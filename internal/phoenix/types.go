package phoenix

import (
	"encoding/json"
	"time"
)

// Dataset is a Phoenix dataset as returned by the v1 API.
type Dataset struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DatasetVersion is one immutable snapshot of a dataset's examples.
type DatasetVersion struct {
	VersionID   string         `json:"version_id"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DatasetExample is one example row of a dataset.
type DatasetExample struct {
	ID       string         `json:"id"`
	Input    map[string]any `json:"input"`
	Output   map[string]any `json:"output,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	UpdatedAt time.Time     `json:"updated_at,omitempty"`
}

// Prompt is a Phoenix prompt identity; its content lives in versions.
type Prompt struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PromptVersion is one immutable version of a prompt template.
type PromptVersion struct {
	ID                   string          `json:"id"`
	Description          string          `json:"description,omitempty"`
	ModelProvider        string          `json:"model_provider,omitempty"`
	ModelName            string          `json:"model_name,omitempty"`
	Template             json.RawMessage `json:"template"`
	TemplateType         string          `json:"template_type,omitempty"`
	TemplateFormat       string          `json:"template_format,omitempty"`
	InvocationParameters map[string]any  `json:"invocation_parameters,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Project is a Phoenix project containing traces.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Span is one span of a trace, flattened the way the export bundle stores it.
type Span struct {
	SpanID        string         `json:"span_id"`
	TraceID       string         `json:"trace_id"`
	ParentID      string         `json:"parent_id,omitempty"`
	Name          string         `json:"name"`
	SpanKind      string         `json:"span_kind,omitempty"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	StatusCode    string         `json:"status_code,omitempty"`
	StatusMessage string         `json:"status_message,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// SpanAnnotation is a human or model annotation attached to a span.
type SpanAnnotation struct {
	ID            string           `json:"id"`
	SpanID        string           `json:"span_id"`
	Name          string           `json:"name"`
	AnnotatorKind string           `json:"annotator_kind,omitempty"`
	Result        AnnotationResult `json:"result"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
}

// AnnotationResult is the label/score payload of an annotation.
type AnnotationResult struct {
	Label       string   `json:"label,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// Evaluation is one span-level evaluation result.
type Evaluation struct {
	SpanID      string   `json:"span_id"`
	TraceID     string   `json:"trace_id,omitempty"`
	Name        string   `json:"name"`
	Label       string   `json:"label,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// page is the cursor-paginated envelope every listing endpoint returns.
type page[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"next_cursor"`
}
