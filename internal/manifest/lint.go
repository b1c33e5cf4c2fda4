package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phxport/phxport/internal/errors"
)

// Severity classifies a lint issue.
type Severity string

// Issue severities. Errors fail validation; warnings do not.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found while linting a manifest.
type Issue struct {
	// Line is the 1-based line number the issue refers to, 0 for
	// file-level issues.
	Line int `json:"line"`

	// Severity is "error" or "warning".
	Severity Severity `json:"severity"`

	// Message describes the problem.
	Message string `json:"message"`
}

// String renders the issue in file:line style.
func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", i.Line, i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// Report is the outcome of linting a manifest.
type Report struct {
	// Path is the linted file, empty for reader input.
	Path string `json:"path,omitempty"`

	// Requirements is the number of requirement lines that parsed.
	Requirements int `json:"requirements"`

	// Issues lists all problems found, in line order.
	Issues []Issue `json:"issues"`
}

// Ok reports whether the manifest passed validation (no error-level issues).
// Warnings alone do not fail a lint.
func (r *Report) Ok() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// LintFile lints the manifest at path, collecting all issues instead of
// stopping at the first.
func LintFile(path string) (*Report, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from the operator
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open manifest %s", path)
	}
	defer func() { _ = f.Close() }()

	report, err := Lint(f)
	if err != nil {
		return nil, err
	}
	report.Path = path
	return report, nil
}

// Lint parses line by line and collects every issue: syntax errors,
// invalid or unsatisfiable constraint sets, and duplicate package names.
// An empty manifest is valid. The returned error covers only read failures;
// manifest problems are always reported through the Report.
func Lint(r io.Reader) (*Report, error) {
	report := &Report{}
	seen := map[string]int{} // normalized name -> first line

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "-") {
			report.Issues = append(report.Issues, Issue{
				Line:     lineNo,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("pip directive %q skipped", line),
			})
			continue
		}

		req, err := parseRequirement(line, lineNo)
		if err != nil {
			report.Issues = append(report.Issues, Issue{
				Line:     lineNo,
				Severity: SeverityError,
				Message:  trimLinePrefix(err.Error()),
			})
			continue
		}
		report.Requirements++

		normalized := NormalizeName(req.Name)
		if first, dup := seen[normalized]; dup {
			report.Issues = append(report.Issues, Issue{
				Line:     lineNo,
				Severity: SeverityError,
				Message: fmt.Sprintf("%s: %q already declared on line %d",
					errors.ErrDuplicateRequirement, req.Name, first),
			})
		} else {
			seen[normalized] = lineNo
		}

		if !req.Constraints.Satisfiable() {
			report.Issues = append(report.Issues, Issue{
				Line:     lineNo,
				Severity: SeverityError,
				Message: fmt.Sprintf("%s: %q",
					errors.ErrConstraintUnsatisfiable, req.Constraints.String()),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}

	return report, nil
}

// trimLinePrefix drops the redundant "line N: " prefix that parseRequirement
// errors carry, since Issue already records the line number.
func trimLinePrefix(msg string) string {
	if rest, found := strings.CutPrefix(msg, "line "); found {
		if i := strings.Index(rest, ": "); i >= 0 {
			return rest[i+2:]
		}
	}
	return msg
}
