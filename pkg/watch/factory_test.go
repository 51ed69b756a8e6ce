package watch

import (
	"errors"
	"testing"
)

func TestNewForcePoll(t *testing.T) {
	monitor, err := New(Options{
		Paths:   []string{"/w"},
		Latency: 1,
		Backend: BackendForcePoll,
	}, func([]Event) error { return nil }, nil)
	if err != nil {
		t.Fatal("failed to construct forced poll monitor:", err)
	}
	if _, ok := monitor.(*PollMonitor); !ok {
		t.Fatalf("expected a *PollMonitor, got %T", monitor)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(Options{
		Paths:   []string{"/w"},
		Latency: 1,
		Backend: Backend(255),
	}, func([]Event) error { return nil }, nil)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestNewInvalidOptionsPropagates(t *testing.T) {
	_, err := New(Options{Backend: BackendForcePoll}, func([]Event) error { return nil }, nil)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for empty path list, got %v", err)
	}
}
