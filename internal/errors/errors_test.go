package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSentinelErrors_AreDistinct verifies sentinel errors do not alias each other.
func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrConfigNil,
		ErrConfigInvalidPhoenix,
		ErrConfigInvalidArize,
		ErrConfigInvalidRetry,
		ErrInvalidOutputFormat,
		ErrEndpointRequired,
		ErrAPIKeyRequired,
		ErrSpaceIDRequired,
		ErrNoStepSelected,
		ErrRequestFailed,
		ErrUnexpectedStatus,
		ErrAuthFailed,
		ErrRateLimited,
		ErrNotFound,
		ErrAlreadyExists,
		ErrBundleNotFound,
		ErrBundleCorrupted,
		ErrBundleIncomplete,
		ErrStepFailed,
		ErrPathTraversal,
		ErrManifestSyntax,
		ErrConstraintInvalid,
		ErrConstraintUnsatisfiable,
		ErrDuplicateRequirement,
		ErrNonInteractiveMode,
		ErrMaxRetriesExceeded,
		ErrInvalidArgument,
		ErrUnsupportedCodec,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b, "sentinel %d aliases sentinel %d", i, j)
		}
	}
}

// TestWrap_NilError verifies Wrap passes nil through unchanged.
func TestWrap_NilError(t *testing.T) {
	t.Parallel()

	require.NoError(t, Wrap(nil, "context"))
	require.NoError(t, Wrapf(nil, "context %d", 1))
}

// TestWrap_PreservesChain verifies errors.Is works through Wrap.
func TestWrap_PreservesChain(t *testing.T) {
	t.Parallel()

	err := Wrap(ErrRequestFailed, "exporting datasets")

	require.Error(t, err)
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, "exporting datasets: request failed", err.Error())
}

// TestWrapf_FormatsMessage verifies Wrapf interpolates arguments.
func TestWrapf_FormatsMessage(t *testing.T) {
	t.Parallel()

	err := Wrapf(ErrNotFound, "project %q", "demo")

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `project "demo": resource not found`, err.Error())
}

// TestExitCode2Error verifies wrapping and detection of exit-code-2 errors.
func TestExitCode2Error(t *testing.T) {
	t.Parallel()

	base := errors.New("bad flag")
	wrapped := NewExitCode2Error(base)

	assert.Equal(t, "bad flag", wrapped.Error())
	require.ErrorIs(t, wrapped, base)
	assert.True(t, IsExitCode2Error(wrapped))
	assert.True(t, IsExitCode2Error(fmt.Errorf("outer: %w", wrapped)))
	assert.False(t, IsExitCode2Error(base))
	assert.False(t, IsExitCode2Error(nil))
}
