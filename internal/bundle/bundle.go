// Package bundle defines the on-disk export bundle: a plain directory tree
// holding datasets, prompts and per-project trace data, written by export
// and read back by import and verify. All JSON documents are written
// atomically (temp file + rename) so a crashed run never leaves a
// half-written file behind.
package bundle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/phxport/phxport/internal/constants"
	"github.com/phxport/phxport/internal/errors"
	"github.com/phxport/phxport/internal/phoenix"
)

// DatasetDocument is the JSON document stored per dataset.
type DatasetDocument struct {
	SchemaVersion string                   `json:"schema_version"`
	Dataset       phoenix.Dataset          `json:"dataset"`
	Versions      []phoenix.DatasetVersion `json:"versions,omitempty"`
	Examples      []phoenix.DatasetExample `json:"examples"`
	ExportedAt    time.Time                `json:"exported_at"`
}

// PromptDocument is the JSON document stored per prompt.
type PromptDocument struct {
	SchemaVersion string                  `json:"schema_version"`
	Prompt        phoenix.Prompt          `json:"prompt"`
	Versions      []phoenix.PromptVersion `json:"versions"`
	ExportedAt    time.Time               `json:"exported_at"`
}

// ProjectDocument is the JSON metadata stored per project directory.
type ProjectDocument struct {
	SchemaVersion string          `json:"schema_version"`
	Project       phoenix.Project `json:"project"`
	SpanCount     int             `json:"span_count"`
	SpanCodec     string          `json:"span_codec"`
	ExportedAt    time.Time       `json:"exported_at"`
	RunID         string          `json:"run_id"`
}

// AnnotationsDocument is the JSON document of a project's span annotations.
type AnnotationsDocument struct {
	SchemaVersion string                   `json:"schema_version"`
	ProjectName   string                   `json:"project_name"`
	Annotations   []phoenix.SpanAnnotation `json:"annotations"`
}

// EvaluationsDocument is the JSON document of a project's evaluations.
type EvaluationsDocument struct {
	SchemaVersion string               `json:"schema_version"`
	ProjectName   string               `json:"project_name"`
	Evaluations   []phoenix.Evaluation `json:"evaluations"`
}

// Bundle is a handle on a bundle directory. The directory does not need to
// exist yet; writers create it on demand.
type Bundle struct {
	root string
}

// New returns a handle on the bundle rooted at dir.
func New(dir string) *Bundle {
	return &Bundle{root: dir}
}

// Root returns the bundle directory.
func (b *Bundle) Root() string {
	return b.root
}

// DatasetsDir returns the datasets directory path.
func (b *Bundle) DatasetsDir() string {
	return filepath.Join(b.root, constants.DatasetsDir)
}

// PromptsDir returns the prompts directory path.
func (b *Bundle) PromptsDir() string {
	return filepath.Join(b.root, constants.PromptsDir)
}

// ProjectsDir returns the projects directory path.
func (b *Bundle) ProjectsDir() string {
	return filepath.Join(b.root, constants.ProjectsDir)
}

// ProjectDir returns the directory for one project, by slug.
func (b *Bundle) ProjectDir(projectName string) (string, error) {
	slug, err := Slugify(projectName)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.ProjectsDir(), slug), nil
}

// RequirementsPath returns the path to the optional environment snapshot.
func (b *Bundle) RequirementsPath() string {
	return filepath.Join(b.root, constants.RequirementsFileName)
}

// Exists reports whether the bundle directory exists.
func (b *Bundle) Exists() bool {
	info, err := os.Stat(b.root)
	return err == nil && info.IsDir()
}

// slugRe matches characters that are unsafe in file names.
var slugRe = regexp.MustCompile(`[^a-z0-9._-]+`) //nolint:gochecknoglobals // Compiled once

// Slugify converts a resource name into a safe file name component.
// Returns ErrPathTraversal when the name would escape its directory even
// after cleaning, which guards against hostile names from a remote server.
func Slugify(name string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-.")
	if slug == "" || slug == "." || slug == ".." || strings.Contains(slug, "/") {
		return "", errors.Wrapf(errors.ErrPathTraversal, "cannot derive file name from %q", name)
	}
	return slug, nil
}

// WriteJSON atomically writes v as indented JSON to path, creating parent
// directories as needed.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "failed to close %s", path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "failed to move %s into place", path)
	}
	return nil
}

// ReadJSON reads the JSON document at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // Bundle paths are derived from slugs
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrBundleNotFound, "%s", path)
		}
		return errors.Wrapf(err, "failed to read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(errors.ErrBundleCorrupted, "%s: %v", path, err)
	}
	return nil
}

// ListJSONFiles returns the sorted paths of all .json files directly in dir.
// A missing directory yields an empty list: a bundle without prompts is
// still a valid bundle.
func ListJSONFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// ListProjectDirs returns the sorted paths of all project directories.
func (b *Bundle) ListProjectDirs() ([]string, error) {
	entries, err := os.ReadDir(b.ProjectsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read projects directory")
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(b.ProjectsDir(), entry.Name()))
		}
	}
	return dirs, nil
}
