// Package manifest parses and validates pip-style dependency manifests
// (requirements.txt). Export bundles may carry a requirements snapshot of
// the source environment; this package provides the schema checks for it:
// every line parses as a requirement specifier, every constraint set is
// satisfiable, and no package is declared twice.
package manifest

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/phxport/phxport/internal/errors"
)

// Requirement is one parsed specifier line:
// name[extras]constraints ; marker.
type Requirement struct {
	// Name is the package name exactly as written.
	Name string

	// Extras lists the optional feature names from the bracket suffix,
	// e.g. "security" in requests[security].
	Extras []string

	// Constraints is the parsed version constraint set. Empty for a bare name.
	Constraints ConstraintSet

	// Marker is the raw environment marker after ";", if any. Markers are
	// preserved but not evaluated.
	Marker string

	// Line is the 1-based line number in the source file.
	Line int

	// Raw is the original line text, trimmed.
	Raw string
}

// Manifest is a parsed dependency manifest.
type Manifest struct {
	// Path is the source file path, empty when parsed from a reader.
	Path string

	// Requirements are the parsed specifier lines in file order.
	Requirements []Requirement

	// Directives are pip option lines ("-r", "--index-url", "-e" and the
	// like) that were skipped rather than parsed.
	Directives []string
}

// nameRe matches a package name per PEP 508.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`) //nolint:gochecknoglobals // Compiled once

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from the operator
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open manifest %s", path)
	}
	defer func() { _ = f.Close() }()

	m, err := Parse(f)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse parses a manifest from r. One specifier per line; blank lines and
// "#" comments are ignored; inline " #" comments are stripped. A line that
// does not parse fails the whole Parse with a line-numbered error. Callers
// that want all problems at once should use Lint instead.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "-") {
			m.Directives = append(m.Directives, line)
			continue
		}

		req, err := parseRequirement(line, lineNo)
		if err != nil {
			return nil, err
		}
		m.Requirements = append(m.Requirements, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}

	return m, nil
}

// stripComment removes full-line and inline comments and trims whitespace.
// Inline comments require preceding whitespace, matching pip.
func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' ||
			strings.TrimSpace(line[:i]) == "" {
			line = line[:i]
		}
	}
	return strings.TrimSpace(line)
}

// parseRequirement parses a single specifier line.
func parseRequirement(line string, lineNo int) (Requirement, error) {
	req := Requirement{Line: lineNo, Raw: line}

	rest := line
	if i := strings.Index(rest, ";"); i >= 0 {
		req.Marker = strings.TrimSpace(rest[i+1:])
		rest = strings.TrimSpace(rest[:i])
	}

	// Split off the constraint portion at the first operator character.
	nameEnd := strings.IndexAny(rest, "><=!~")
	spec := ""
	namePart := rest
	if nameEnd >= 0 {
		namePart = strings.TrimSpace(rest[:nameEnd])
		spec = strings.TrimSpace(rest[nameEnd:])
	}

	// Extract extras from the bracket suffix.
	if i := strings.Index(namePart, "["); i >= 0 {
		if !strings.HasSuffix(namePart, "]") {
			return Requirement{}, errors.Wrapf(errors.ErrManifestSyntax,
				"line %d: unterminated extras in %q", lineNo, line)
		}
		for _, extra := range strings.Split(namePart[i+1:len(namePart)-1], ",") {
			extra = strings.TrimSpace(extra)
			if extra == "" {
				return Requirement{}, errors.Wrapf(errors.ErrManifestSyntax,
					"line %d: empty extra in %q", lineNo, line)
			}
			req.Extras = append(req.Extras, extra)
		}
		namePart = namePart[:i]
	}

	if !nameRe.MatchString(namePart) {
		return Requirement{}, errors.Wrapf(errors.ErrManifestSyntax,
			"line %d: invalid package name %q", lineNo, namePart)
	}
	req.Name = namePart

	constraints, err := ParseConstraints(spec)
	if err != nil {
		return Requirement{}, errors.Wrapf(err, "line %d", lineNo)
	}
	req.Constraints = constraints

	return req, nil
}

// NormalizeName canonicalizes a package name per PEP 503: lowercase, with
// runs of "-", "_" and "." collapsed to a single "-". Duplicate detection
// compares normalized names.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastDash := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			if !lastDash {
				b.WriteByte('-')
			}
			lastDash = true
			continue
		}
		lastDash = false
		b.WriteRune(r)
	}
	return b.String()
}
