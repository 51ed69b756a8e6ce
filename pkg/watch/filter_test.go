package watch

import (
	"testing"
)

func TestFilterCompileInvalidPattern(t *testing.T) {
	_, err := Compile(FilterSpec{Text: "(unterminated", Polarity: PolarityExclude, CaseSensitive: true})
	if err == nil {
		t.Fatal("expected compilation failure for invalid pattern")
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	filter, err := Compile(FilterSpec{Text: `\.TXT$`, Polarity: PolarityInclude, CaseSensitive: false})
	if err != nil {
		t.Fatal("filter failed to compile:", err)
	}
	if !filter.Matches("/w/a.txt") {
		t.Fatal("case-insensitive filter did not match differently-cased path")
	}
}

func TestFilterCaseSensitive(t *testing.T) {
	filter, err := Compile(FilterSpec{Text: `\.TXT$`, Polarity: PolarityInclude, CaseSensitive: true})
	if err != nil {
		t.Fatal("filter failed to compile:", err)
	}
	if filter.Matches("/w/a.txt") {
		t.Fatal("case-sensitive filter matched differently-cased path")
	}
}

// TestFilterCompositionIncludeOnly exercises the filter composition law: an
// include-only configuration accepting path p implies at least one include
// regex matches p.
func TestFilterCompositionIncludeOnly(t *testing.T) {
	filters, err := compileAll([]FilterSpec{
		{Text: `\.txt$`, Polarity: PolarityInclude, CaseSensitive: true},
	})
	if err != nil {
		t.Fatal("failed to compile filters:", err)
	}

	if !accept(filters, "/w/a.txt") {
		t.Fatal("path matching the only include filter was rejected")
	}
	if accept(filters, "/w/a.bin") {
		t.Fatal("path matching no include filter was accepted")
	}
}

// TestFilterCompositionExcludeSuppresses exercises the second half of the
// composition law: an exclude matching p suppresses all events for p,
// regardless of any include match.
func TestFilterCompositionExcludeSuppresses(t *testing.T) {
	filters, err := compileAll([]FilterSpec{
		{Text: `.*`, Polarity: PolarityInclude, CaseSensitive: true},
		{Text: `\.tmp$`, Polarity: PolarityExclude, CaseSensitive: true},
	})
	if err != nil {
		t.Fatal("failed to compile filters:", err)
	}

	if accept(filters, "/w/a.tmp") {
		t.Fatal("excluded path was accepted despite a matching exclude filter")
	}
	if !accept(filters, "/w/a.txt") {
		t.Fatal("non-excluded path was rejected")
	}
}

func TestFilterNoFiltersAcceptsEverything(t *testing.T) {
	if !accept(nil, "/w/anything") {
		t.Fatal("empty filter list rejected a path")
	}
}
