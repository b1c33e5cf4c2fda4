// Package errors provides centralized error handling for phxport.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidPhoenix indicates an invalid Phoenix configuration value.
	ErrConfigInvalidPhoenix = errors.New("invalid Phoenix configuration")

	// ErrConfigInvalidArize indicates an invalid Arize configuration value.
	ErrConfigInvalidArize = errors.New("invalid Arize configuration")

	// ErrConfigInvalidRetry indicates an invalid retry configuration value.
	ErrConfigInvalidRetry = errors.New("invalid retry configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrEndpointRequired indicates that no Phoenix endpoint was configured.
	ErrEndpointRequired = errors.New("phoenix endpoint required")

	// ErrAPIKeyRequired indicates that no Arize API key was configured.
	ErrAPIKeyRequired = errors.New("arize api key required")

	// ErrSpaceIDRequired indicates that no Arize space ID was configured.
	ErrSpaceIDRequired = errors.New("arize space id required")

	// ErrNoStepSelected indicates that no export or import step was selected.
	ErrNoStepSelected = errors.New("no step selected")

	// ErrRequestFailed indicates that an HTTP request failed after all
	// retry attempts were exhausted.
	ErrRequestFailed = errors.New("request failed")

	// ErrUnexpectedStatus indicates an HTTP response with an unexpected
	// status code.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrAuthFailed indicates that the server rejected the credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates that the server rate limited the client.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound indicates that a requested remote resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates that a resource being created already
	// exists on the target. Importers treat this as success.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrBundleNotFound indicates that the export bundle directory does not exist.
	ErrBundleNotFound = errors.New("export bundle not found")

	// ErrBundleCorrupted indicates that a bundle file is unreadable or
	// fails to parse.
	ErrBundleCorrupted = errors.New("export bundle corrupted")

	// ErrBundleIncomplete indicates that a bundle is missing files that its
	// results records say should exist.
	ErrBundleIncomplete = errors.New("export bundle incomplete")

	// ErrBundleLocked indicates that another phxport process holds the
	// bundle's lock file.
	ErrBundleLocked = errors.New("export bundle locked by another process")

	// ErrStepFailed indicates that one or more pipeline steps failed.
	ErrStepFailed = errors.New("pipeline step failed")

	// ErrPathTraversal indicates an attempt to use path traversal in a filename.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrManifestSyntax indicates that a dependency manifest line does not
	// parse as a requirement specifier.
	ErrManifestSyntax = errors.New("manifest syntax error")

	// ErrConstraintInvalid indicates a version constraint that does not
	// parse or uses an unknown operator.
	ErrConstraintInvalid = errors.New("invalid version constraint")

	// ErrConstraintUnsatisfiable indicates a constraint set no version can satisfy.
	ErrConstraintUnsatisfiable = errors.New("unsatisfiable version constraint")

	// ErrDuplicateRequirement indicates a package declared more than once
	// in a manifest.
	ErrDuplicateRequirement = errors.New("duplicate requirement")

	// ErrNonInteractiveMode indicates that an operation requiring confirmation
	// was attempted in non-interactive mode without the --yes flag.
	ErrNonInteractiveMode = errors.New("use --yes in non-interactive mode")

// ErrMaxRetriesExceeded indicates the maximum retry attempts have been reached.
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedCodec indicates an unknown span file codec name.
	ErrUnsupportedCodec = errors.New("unsupported span codec")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
