package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phxport/phxport/internal/errors"
)

// executeCommand runs the CLI with args and returns combined output. HOME
// and the working directory are isolated so no config or log files leak.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "phxport")
	assert.Contains(t, out, "export")
	assert.Contains(t, out, "import")
	assert.Contains(t, out, "verify")
	assert.Contains(t, out, "deps")
}

func TestRootCommand_Version(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test")
}

func TestRootCommand_InvalidOutputFormat(t *testing.T) {
	_, err := executeCommand(t, "--output", "xml")
	require.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCommand_VerboseQuietMutuallyExclusive(t *testing.T) {
	_, err := executeCommand(t, "--verbose", "--quiet")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestExportCommand_NoStepSelected(t *testing.T) {
	_, err := executeCommand(t, "export")
	require.ErrorIs(t, err, errors.ErrNoStepSelected)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestImportCommand_NoStepSelected(t *testing.T) {
	_, err := executeCommand(t, "import")
	require.ErrorIs(t, err, errors.ErrNoStepSelected)
}

func TestImportCommand_RequiresCredentials(t *testing.T) {
	_, err := executeCommand(t, "import", "--all")
	require.ErrorIs(t, err, errors.ErrAPIKeyRequired)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestExportCommand_RequiresEndpoint(t *testing.T) {
	_, err := executeCommand(t, "export", "--all")
	require.ErrorIs(t, err, errors.ErrEndpointRequired)
}

func TestVerifyCommand_MissingBundle(t *testing.T) {
	_, err := executeCommand(t, "verify", "does-not-exist")
	require.ErrorIs(t, err, errors.ErrBundleNotFound)
	assert.Equal(t, ExitError, ExitCodeForError(err))
}

func TestDepsCommand_CleanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	content := "httpx>=0.24.0,<1.0.0\npython-dotenv>=1.0.0\ntqdm>=4.65.0\narize[Datasets,Prompts]>=7.0.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := executeCommand(t, "deps", path)
	require.NoError(t, err)
	assert.Contains(t, out, "4 requirement(s)")
	assert.Contains(t, out, "OK")
}

func TestDepsCommand_BrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("httpx\nHTTPX>=1.0\n"), 0o600))

	out, err := executeCommand(t, "deps", path)
	require.ErrorIs(t, err, errors.ErrManifestSyntax)
	assert.Equal(t, ExitError, ExitCodeForError(err))
	assert.Contains(t, out, "duplicate")
}

func TestDepsCommand_JSONOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("pandas>=2.0.0\n"), 0o600))

	out, err := executeCommand(t, "--output", "json", "deps", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"requirements": 1`)
	assert.Contains(t, out, `"issues"`)
}

func TestConfigShowCommand(t *testing.T) {
	t.Setenv("ARIZE_API_KEY", "super-secret")

	out, err := executeCommand(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "phoenix:")
	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "super-secret")
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev (commit: none, built: unknown)", formatVersion(BuildInfo{}))
	assert.Equal(t, "1.2.3 (commit: abc, built: today)", formatVersion(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"}))
}
