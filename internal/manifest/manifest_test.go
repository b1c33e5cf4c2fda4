package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	phxerrors "github.com/phxport/phxport/internal/errors"
)

// exportRequirements is a realistic environment snapshot like the ones
// exported bundles carry.
const exportRequirements = `# Phoenix export tooling
httpx>=0.24.0,<1.0.0
python-dotenv>=1.0.0
tqdm>=4.65.0

# Columnar output
pandas>=2.0.0
pyarrow>=12.0.0

arize[Datasets,Prompts]>=7.0.0
packaging>=23.0
`

// TestParse_ExportManifest parses the real manifest end to end.
func TestParse_ExportManifest(t *testing.T) {
	t.Parallel()

	m, err := Parse(strings.NewReader(exportRequirements))

	require.NoError(t, err)
	require.Len(t, m.Requirements, 7)

	httpx := m.Requirements[0]
	assert.Equal(t, "httpx", httpx.Name)
	assert.Equal(t, 2, len(httpx.Constraints.Clauses()))
	assert.Equal(t, ">=0.24.0,<1.0.0", httpx.Constraints.String())
	assert.Equal(t, 2, httpx.Line)

	arize := m.Requirements[5]
	assert.Equal(t, "arize", arize.Name)
	assert.Equal(t, []string{"Datasets", "Prompts"}, arize.Extras)
}

// TestParse_EmptyAndComments verifies blank lines and comments are ignored.
func TestParse_EmptyAndComments(t *testing.T) {
	t.Parallel()

	m, err := Parse(strings.NewReader("\n# only a comment\n\n   \n"))

	require.NoError(t, err)
	assert.Empty(t, m.Requirements)
}

// TestParse_BareName verifies a specifier with no constraint.
func TestParse_BareName(t *testing.T) {
	t.Parallel()

	m, err := Parse(strings.NewReader("requests\n"))

	require.NoError(t, err)
	require.Len(t, m.Requirements, 1)
	assert.True(t, m.Requirements[0].Constraints.Empty())
}

// TestParse_InlineComment verifies inline comments are stripped.
func TestParse_InlineComment(t *testing.T) {
	t.Parallel()

	m, err := Parse(strings.NewReader("tqdm>=4.65.0  # progress bars\n"))

	require.NoError(t, err)
	require.Len(t, m.Requirements, 1)
	assert.Equal(t, "tqdm", m.Requirements[0].Name)
	assert.Equal(t, ">=4.65.0", m.Requirements[0].Constraints.String())
}

// TestParse_EnvironmentMarker verifies markers are kept verbatim.
func TestParse_EnvironmentMarker(t *testing.T) {
	t.Parallel()

	m, err := Parse(strings.NewReader(`typing-extensions>=4.0 ; python_version < "3.11"`))

	require.NoError(t, err)
	require.Len(t, m.Requirements, 1)
	assert.Equal(t, `python_version < "3.11"`, m.Requirements[0].Marker)
}

// TestParse_Directives verifies pip option lines are collected, not parsed.
func TestParse_Directives(t *testing.T) {
	t.Parallel()

	m, err := Parse(strings.NewReader("-r base.txt\n--index-url https://pypi.internal\nhttpx\n"))

	require.NoError(t, err)
	assert.Len(t, m.Directives, 2)
	require.Len(t, m.Requirements, 1)
}

// TestParse_SyntaxErrors covers malformed lines.
func TestParse_SyntaxErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "invalid name", input: "!!bad==1.0"},
		{name: "unterminated extras", input: "arize[Datasets>=7.0.0"},
		{name: "empty extra", input: "arize[]>=7.0.0"},
		{name: "trailing comma clause", input: "httpx>=0.24.0,"},
		{name: "operator without version", input: "httpx>="},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}
}

// TestNormalizeName verifies PEP 503 normalization.
func TestNormalizeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "python-dotenv", NormalizeName("Python_DotEnv"))
	assert.Equal(t, "foo-bar", NormalizeName("foo-_.bar"))
	assert.Equal(t, "tqdm", NormalizeName("tqdm"))
}

// TestConstraints_Check covers concrete version checks per operator.
func TestConstraints_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{">=0.24.0,<1.0.0", "0.24.0", true},
		{">=0.24.0,<1.0.0", "0.27.2", true},
		{">=0.24.0,<1.0.0", "1.0.0", false},
		{">=0.24.0,<1.0.0", "0.23.9", false},
		{"==2.0.0", "2.0.0", true},
		{"==2.0.0", "2.0.1", false},
		{"==1.4.*", "1.4.7", true},
		{"==1.4.*", "1.5.0", false},
		{"!=2.1.0", "2.1.0", false},
		{"!=2.1.0", "2.1.1", true},
		{"~=2.2", "2.9.0", true},
		{"~=2.2", "3.0.0", false},
		{"~=1.4.5", "1.4.9", true},
		{"~=1.4.5", "1.5.0", false},
		{">23.0", "23.1.0", true},
		{"<=12.0.0", "12.0.0", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.spec+" vs "+tt.version, func(t *testing.T) {
			t.Parallel()
			cs, err := ParseConstraints(tt.spec)
			require.NoError(t, err)

			got, err := cs.Check(tt.version)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestConstraints_EmptySetAdmitsAll verifies the empty set behavior.
func TestConstraints_EmptySetAdmitsAll(t *testing.T) {
	t.Parallel()

	cs, err := ParseConstraints("")
	require.NoError(t, err)

	ok, err := cs.Check("0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, cs.Satisfiable())
}

// TestConstraints_Prerelease verifies PEP 440 pre-release spellings parse.
func TestConstraints_Prerelease(t *testing.T) {
	t.Parallel()

	cs, err := ParseConstraints(">=1.0rc1")
	require.NoError(t, err)

	ok, err := cs.Check("1.0.0")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestConstraints_Satisfiable covers satisfiability detection.
func TestConstraints_Satisfiable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec string
		want bool
	}{
		{">=0.24.0,<1.0.0", true},
		{">=1.0.0,<1.0.0", false},
		{"<1.0.0,>=2.0.0", false},
		{"==1.0.0,!=1.0.0", false},
		{">1.0.0,<2.0.0", true},
		{"~=2.2,<3.0.0", true},
		{"~=2.2,>=3.0.0", false},
		{"==1.4.*,>=1.4.2", true},
		{"==1.4.*,>=1.5.0", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()
			cs, err := ParseConstraints(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cs.Satisfiable())
		})
	}
}

// TestConstraints_UnknownOperator verifies unknown operators error cleanly.
func TestConstraints_UnknownOperator(t *testing.T) {
	t.Parallel()

	_, err := ParseConstraints("^1.0.0")

	require.ErrorIs(t, err, phxerrors.ErrConstraintInvalid)
}
