package watch

import (
	"testing"
	"time"
)

func TestFlagHasSubset(t *testing.T) {
	flags := FlagCreated | FlagIsFile
	if !flags.Has(FlagCreated) {
		t.Fatal("flag set did not report containing a flag it was constructed with")
	}
	if flags.Has(FlagRemoved) {
		t.Fatal("flag set reported containing a flag it was not constructed with")
	}
}

func TestFlagEmpty(t *testing.T) {
	var flags Flag
	if !flags.Empty() {
		t.Fatal("zero-value flag set did not report empty")
	}
	if (FlagCreated).Empty() {
		t.Fatal("non-zero flag set reported empty")
	}
}

func TestFlagString(t *testing.T) {
	flags := FlagCreated | FlagIsFile
	if got := flags.String(); got != "Created IsFile" {
		t.Fatalf("unexpected string representation: %q", got)
	}
}

func TestFlagStringEmpty(t *testing.T) {
	var flags Flag
	if got := flags.String(); got != "" {
		t.Fatalf("unexpected string representation for empty flag set: %q", got)
	}
}

func TestFlagMask(t *testing.T) {
	flags := FlagCreated | FlagUpdated
	if got := flags.Mask(); got != uint64(FlagCreated)+uint64(FlagUpdated) {
		t.Fatalf("unexpected mask: %d", got)
	}
}

func TestNewEventTruncatesToSeconds(t *testing.T) {
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 999_999_999, time.UTC)
	event := newEvent("/w/a.txt", stamp, FlagCreated)
	if event.Time.Nanosecond() != 0 {
		t.Fatalf("event time was not truncated to second resolution: %v", event.Time)
	}
	if event.Path != "/w/a.txt" {
		t.Fatalf("unexpected event path: %s", event.Path)
	}
	if event.Flags != FlagCreated {
		t.Fatalf("unexpected event flags: %s", event.Flags)
	}
}
