package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestContainsSensitiveData covers the pattern matchers.
func TestContainsSensitiveData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{
			name:  "plain message",
			input: "exported 12 datasets",
			want:  false,
		},
		{
			name:  "api_key assignment",
			input: `api_key=phx_1234567890abcdef1234`,
			want:  true,
		},
		{
			name:  "bearer token",
			input: "Bearer abcdefghijklmnopqrstuvwxyz123456",
			want:  true,
		},
		{
			name:  "authorization header",
			input: `authorization: abcdefghijklmnopqrstuvwx`,
			want:  true,
		},
		{
			name:  "password assignment",
			input: "password=supersecret99",
			want:  true,
		},
		{
			name:  "short value not matched",
			input: "api_key=short",
			want:  false,
		},
		{
			name:  "endpoint url",
			input: "https://app.phoenix.arize.com",
			want:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ContainsSensitiveData(tt.input))
		})
	}
}

// TestFilterSensitiveValue verifies redaction replaces matches in place.
func TestFilterSensitiveValue(t *testing.T) {
	t.Parallel()

	in := "connecting with api_key=phx_1234567890abcdef1234 to server"
	out := FilterSensitiveValue(in)

	assert.NotContains(t, out, "phx_1234567890abcdef1234")
	assert.Contains(t, out, RedactedValue)
}

// TestIsSensitiveFieldName verifies field-name matching is case-insensitive
// and substring-based.
func TestIsSensitiveFieldName(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSensitiveFieldName("api_key"))
	assert.True(t, IsSensitiveFieldName("ARIZE_API_KEY"))
	assert.True(t, IsSensitiveFieldName("arize_developer_key"))
	assert.True(t, IsSensitiveFieldName("request_api_key"))
	assert.False(t, IsSensitiveFieldName("endpoint"))
	assert.False(t, IsSensitiveFieldName("space_id"))
}

// TestSafeValue verifies sensitive field names are fully redacted and other
// values are pattern-filtered.
func TestSafeValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RedactedValue, SafeValue("api_key", "phx_1234567890abcdef1234"))
	assert.Equal(t, "http://localhost:6006", SafeValue("endpoint", "http://localhost:6006"))
}

// TestSensitiveDataHook_FlagsEntry verifies the hook adds the marker field.
func TestSensitiveDataHook_FlagsEntry(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(NewSensitiveDataHook())

	logger.Info().Msg("using api_key=phx_1234567890abcdef1234")

	assert.Contains(t, buf.String(), `"contains_filtered_data":true`)
}

// TestFilteringWriter verifies redaction on the write path and length reporting.
func TestFilteringWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewFilteringWriter(&buf)

	in := "password=hunter2hunter2\n"
	n, err := w.Write([]byte(in))

	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.NotContains(t, buf.String(), "hunter2hunter2")
	assert.True(t, strings.Contains(buf.String(), RedactedValue))
}
