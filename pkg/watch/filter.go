package watch

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

// Polarity indicates whether a Filter includes or excludes paths that match
// its pattern.
type Polarity bool

const (
	// PolarityInclude marks a filter as an include filter.
	PolarityInclude Polarity = true
	// PolarityExclude marks a filter as an exclude filter.
	PolarityExclude Polarity = false
)

// FilterSpec is the uncompiled, wire-level representation of a filter:
// (regex_text, polarity, case_sensitive, extended).
type FilterSpec struct {
	// Text is the regular expression pattern.
	Text string
	// Polarity is include or exclude.
	Polarity Polarity
	// CaseSensitive indicates whether matching is case sensitive.
	CaseSensitive bool
	// Extended selects the extended regex flavor where available; otherwise
	// basic. Go's regexp package implements RE2, which has no basic/extended
	// distinction, so this bit is accepted for wire-format compatibility and
	// recorded on the compiled Filter but does not change how the pattern is
	// compiled.
	Extended bool
}

// Filter is a compiled FilterSpec: a regex-based accept/reject predicate
// over absolute paths.
type Filter struct {
	spec    FilterSpec
	pattern *regexp.Regexp
}

// Compile compiles spec into a Filter. A pattern that fails to compile
// returns an error wrapping ErrFilterCompilationFailed.
func Compile(spec FilterSpec) (*Filter, error) {
	pattern := spec.Text
	if !spec.CaseSensitive {
		pattern = "(?i)" + pattern
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(ErrFilterCompilationFailed, "pattern %q: %v", spec.Text, err)
	}

	return &Filter{spec: spec, pattern: compiled}, nil
}

// Matches reports whether path matches the filter's pattern.
func (f *Filter) Matches(path string) bool {
	return f.pattern.MatchString(path)
}

// Polarity returns the filter's polarity.
func (f *Filter) Polarity() Polarity {
	return f.spec.Polarity
}

// compileAll compiles every spec in specs, stopping at the first failure.
func compileAll(specs []FilterSpec) ([]*Filter, error) {
	filters := make([]*Filter, 0, len(specs))
	for _, spec := range specs {
		filter, err := Compile(spec)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}
	return filters, nil
}

// accept implements the shared path acceptance predicate: given a candidate
// path, accept iff (include set is empty OR any include matches) AND (no
// exclude matches).
func accept(filters []*Filter, path string) bool {
	haveInclude := false
	includeMatched := false

	for _, filter := range filters {
		matched := filter.Matches(path)
		if filter.Polarity() == PolarityInclude {
			haveInclude = true
			if matched {
				includeMatched = true
			}
		} else if matched {
			return false
		}
	}

	if haveInclude && !includeMatched {
		return false
	}
	return true
}

// String renders a FilterSpec for diagnostic purposes.
func (s FilterSpec) String() string {
	polarity := "exclude"
	if s.Polarity == PolarityInclude {
		polarity = "include"
	}
	return fmt.Sprintf("%s:%q", polarity, s.Text)
}
