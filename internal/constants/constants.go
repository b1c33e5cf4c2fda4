// Package constants provides centralized constant values used throughout phxport.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names used by phxport for organizing data.
const (
	// AppHome is the hidden directory name where phxport stores its own data.
	// This directory is created in the user's home directory.
	AppHome = ".phxport"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// ResultsDir is the directory where per-step result files are written,
	// relative to the working directory.
	ResultsDir = "results"

	// DefaultExportDir is the default bundle directory for exports.
	DefaultExportDir = "phoenix_export"
)

// Bundle layout names. An export bundle is a plain directory tree so it can
// be inspected, diffed and copied with ordinary tools.
const (
	// DatasetsDir holds one JSON document per exported dataset.
	DatasetsDir = "datasets"

	// PromptsDir holds one JSON document per exported prompt.
	PromptsDir = "prompts"

	// ProjectsDir holds one subdirectory per exported project.
	ProjectsDir = "projects"

	// ProjectFileName is the project metadata document inside a project dir.
	ProjectFileName = "project.json"

	// TracesFileName is the columnar span file inside a project dir.
	TracesFileName = "traces.parquet"

	// TracesJSONLFileName is the span file written when the jsonl codec is
	// selected instead of parquet.
	TracesJSONLFileName = "traces.jsonl"

	// CodecParquet and CodecJSONL name the supported span codecs.
	CodecParquet = "parquet"
	CodecJSONL   = "jsonl"

	// AnnotationsFileName is the span annotation document inside a project dir.
	AnnotationsFileName = "annotations.json"

	// EvaluationsFileName is the evaluation document inside a project dir.
	EvaluationsFileName = "evaluations.json"

	// RequirementsFileName is the optional environment snapshot carried in a
	// bundle, in pip requirements format.
	RequirementsFileName = "requirements.txt"

	// AnnotationGuideFileName is the YAML guide written by the annotation
	// setup step of an import.
	AnnotationGuideFileName = "annotation_setup.yaml"
)

// Log file configuration.
const (
	// CLILogFileName is the rotating log file under ~/.phxport/logs.
	CLILogFileName = "phxport.log"

	// LogMaxSizeMB is the maximum size of a log file before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files to keep.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age of rotated log files.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)

// Timeout configuration for HTTP operations.
const (
	// DefaultHTTPTimeout is the default per-request timeout for both the
	// Phoenix and Arize clients.
	DefaultHTTPTimeout = 60 * time.Second
)

// Retry configuration defaults for recoverable HTTP failures.
const (
	// MaxRetryAttempts is the default number of attempts for a request
	// before giving up.
	MaxRetryAttempts = 5

	// InitialBackoff is the backoff before the first retry. Subsequent
	// retries grow by BackoffMultiplier up to MaxBackoff.
	InitialBackoff = 1 * time.Second

	// MaxBackoff caps the exponential backoff growth.
	MaxBackoff = 30 * time.Second

	// BackoffMultiplier is the exponential growth factor between retries.
	BackoffMultiplier = 2
)

// Pagination defaults for the Phoenix API.
const (
	// DefaultPageSize is the page size used for cursor-paginated listings.
	DefaultPageSize = 100
)

// Bare environment variable names honored alongside the PHXPORT_ prefix.
const (
	// EnvPhoenixEndpoint is the base URL of the Phoenix server.
	EnvPhoenixEndpoint = "PHOENIX_ENDPOINT"

	// EnvPhoenixAPIKey is the Phoenix Cloud API key, if authentication is required.
	EnvPhoenixAPIKey = "PHOENIX_API_KEY"

	// EnvPhoenixExportDir overrides the bundle directory for exports.
	EnvPhoenixExportDir = "PHOENIX_EXPORT_DIR"

	// EnvArizeAPIKey is the Arize API key used for imports.
	EnvArizeAPIKey = "ARIZE_API_KEY"

	// EnvArizeSpaceID is the Arize space the import targets.
	EnvArizeSpaceID = "ARIZE_SPACE_ID"

	// EnvArizeDeveloperKey is the optional developer key some evaluation
	// endpoints require.
	EnvArizeDeveloperKey = "ARIZE_DEVELOPER_KEY"
)

// Schema version constants for forward-compatible bundle migrations.
const (
	// BundleSchemaVersion is the current version of the bundle layout.
	BundleSchemaVersion = "1.0"
)
