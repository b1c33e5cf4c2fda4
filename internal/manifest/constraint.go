package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/phxport/phxport/internal/errors"
)

// Constraint operators in pip requirement specifiers, longest first so the
// clause splitter matches "==" before "=".
var constraintOps = []string{"===", "==", "!=", ">=", "<=", "~=", ">", "<"} //nolint:gochecknoglobals // Static operator table

// Clause is a single operator/version pair inside a constraint set,
// e.g. (">=", "0.24.0").
type Clause struct {
	// Op is one of ==, ===, !=, >=, <=, >, <, ~=.
	Op string
	// Version is the literal version text from the manifest.
	Version string

	// check is the compiled matcher for this clause.
	check *semver.Constraints
}

// ConstraintSet is an ordered, comma-separated list of clauses that must all
// hold for a version to be admissible, e.g. ">=0.24.0,<1.0.0".
type ConstraintSet struct {
	clauses []Clause
}

// ParseConstraints parses the constraint portion of a requirement specifier.
// An empty string yields an empty set, which admits any version.
func ParseConstraints(s string) (ConstraintSet, error) {
	var set ConstraintSet

	s = strings.TrimSpace(s)
	if s == "" {
		return set, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return ConstraintSet{}, errors.Wrapf(errors.ErrConstraintInvalid,
				"empty clause in %q", s)
		}

		clause, err := parseClause(part)
		if err != nil {
			return ConstraintSet{}, err
		}
		set.clauses = append(set.clauses, clause)
	}

	return set, nil
}

// parseClause splits a single clause into operator and version and compiles
// the matcher.
func parseClause(s string) (Clause, error) {
	for _, op := range constraintOps {
		if !strings.HasPrefix(s, op) {
			continue
		}

		version := strings.TrimSpace(strings.TrimPrefix(s, op))
		if version == "" {
			return Clause{}, errors.Wrapf(errors.ErrConstraintInvalid,
				"operator %q without version", op)
		}

		check, err := compileClause(op, version)
		if err != nil {
			return Clause{}, err
		}
		return Clause{Op: op, Version: version, check: check}, nil
	}

	return Clause{}, errors.Wrapf(errors.ErrConstraintInvalid,
		"clause %q has no comparison operator", s)
}

// compileClause translates a pip clause into a semver constraint.
//
// Mappings:
//   - "==1.4.*" and "!=1.4.*" use wildcard matching ("1.4.x")
//   - "~=2.2" (compatible release) becomes ">=2.2, <3.0"; "~=1.4.5"
//     becomes ">=1.4.5, <1.5.0" (last stated component may vary)
//   - "===" (arbitrary equality) degrades to exact version match
//   - remaining operators map directly
func compileClause(op, version string) (*semver.Constraints, error) {
	var expr string

	switch op {
	case "==", "===":
		expr = wildcardToX(version)
	case "!=":
		expr = "!=" + wildcardToX(version)
	case "~=":
		lower, upper, err := compatibleReleaseBounds(version)
		if err != nil {
			return nil, err
		}
		expr = fmt.Sprintf(">=%s, <%s", lower, upper)
	case ">=", "<=", ">", "<":
		expr = op + normalizeVersion(version)
	default:
		return nil, errors.Wrapf(errors.ErrConstraintInvalid, "unknown operator %q", op)
	}

	c, err := semver.NewConstraint(expr)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrConstraintInvalid,
			"cannot parse %s%s", op, version)
	}
	return c, nil
}

// wildcardToX rewrites pip's trailing ".*" wildcard into the "x" form the
// semver library understands, and normalizes plain versions.
func wildcardToX(version string) string {
	if strings.HasSuffix(version, ".*") {
		return strings.TrimSuffix(version, ".*") + ".x"
	}
	return normalizeVersion(version)
}

// compatibleReleaseBounds computes the [lower, upper) range for a "~=" clause.
// The upper bound bumps the second-to-last stated component, per PEP 440.
func compatibleReleaseBounds(version string) (string, string, error) {
	release := version
	if i := strings.IndexAny(release, "abc!+"); i >= 0 && !strings.Contains(release[:i], ".") {
		// "~=" on something like "2rc1" is not a meaningful range.
		return "", "", errors.Wrapf(errors.ErrConstraintInvalid,
			"~= requires a release version, got %q", version)
	}

	parts := strings.Split(release, ".")
	if len(parts) < 2 {
		return "", "", errors.Wrapf(errors.ErrConstraintInvalid,
			"~= requires at least two version components, got %q", version)
	}

	lower, err := semver.NewVersion(normalizeVersion(version))
	if err != nil {
		return "", "", errors.Wrapf(errors.ErrConstraintInvalid,
			"cannot parse %q", version)
	}

	var upper semver.Version
	if len(parts) == 2 {
		upper = lower.IncMajor()
	} else {
		upper = lower.IncMinor()
	}

	return lower.String(), upper.String(), nil
}

// prereleaseRe matches PEP 440 pre-release suffixes (1.0a1, 1.0b2, 1.0rc3),
// with or without a separating dot.
var prereleaseRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?(a|b|rc)\.?(\d+)$`) //nolint:gochecknoglobals // Compiled once

// normalizeVersion rewrites common PEP 440 version spellings into semver
// syntax: a leading "v" is dropped by the semver library itself, and
// pre-release suffixes become hyphenated ("1.0rc1" -> "1.0-rc.1").
// Post and dev releases are left as-is and will fail to parse, surfacing
// as constraint issues rather than being silently misread.
func normalizeVersion(version string) string {
	if m := prereleaseRe.FindStringSubmatch(version); m != nil {
		return fmt.Sprintf("%s-%s.%s", m[1], m[2], m[3])
	}
	return version
}

// Empty reports whether the set has no clauses.
func (cs ConstraintSet) Empty() bool {
	return len(cs.clauses) == 0
}

// Clauses returns the parsed clauses in declaration order.
func (cs ConstraintSet) Clauses() []Clause {
	return cs.clauses
}

// String reassembles the set in canonical pip form.
func (cs ConstraintSet) String() string {
	parts := make([]string, 0, len(cs.clauses))
	for _, c := range cs.clauses {
		parts = append(parts, c.Op+c.Version)
	}
	return strings.Join(parts, ",")
}

// Check reports whether the given concrete version satisfies every clause.
// An empty set admits any parseable version.
func (cs ConstraintSet) Check(version string) (bool, error) {
	v, err := semver.NewVersion(normalizeVersion(version))
	if err != nil {
		return false, errors.Wrapf(errors.ErrConstraintInvalid,
			"cannot parse version %q", version)
	}

	for _, c := range cs.clauses {
		if !c.check.Check(v) {
			return false, nil
		}
	}
	return true, nil
}

// Satisfiable reports whether at least one version could satisfy every
// clause simultaneously. The check probes a candidate set derived from the
// clause boundaries (each stated version plus its patch, minor and major
// successors, and the extremes), which is exact for the comparison grammar
// used in requirement files.
func (cs ConstraintSet) Satisfiable() bool {
	if cs.Empty() {
		return true
	}

	candidates := []*semver.Version{
		semver.New(0, 0, 0, "", ""),
		semver.New(999999, 999999, 999999, "", ""),
	}

	for _, c := range cs.clauses {
		base, err := semver.NewVersion(strings.TrimSuffix(normalizeVersion(c.Version), ".*"))
		if err != nil {
			continue
		}
		next := base.IncPatch()
		minor := base.IncMinor()
		major := base.IncMajor()
		candidates = append(candidates, base, &next, &minor, &major)
	}

	for _, v := range candidates {
		ok := true
		for _, c := range cs.clauses {
			if !c.check.Check(v) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
