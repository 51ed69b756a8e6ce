package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fswatcher-go/fswatcher/pkg/watch"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal("failed to write configuration file:", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	path := writeConfig(t, `
paths:
  - /w
latency: 2.5
recursive: true
followSymlinks: false
backend: poll
filters:
  - pattern: '\.tmp$'
    exclude: true
    caseSensitive: true
`)

	configuration, err := LoadConfiguration(path)
	if err != nil {
		t.Fatal("failed to load configuration:", err)
	}

	if len(configuration.Paths) != 1 || configuration.Paths[0] != "/w" {
		t.Fatalf("unexpected paths: %v", configuration.Paths)
	}
	if configuration.Latency != 2.5 {
		t.Fatalf("unexpected latency: %v", configuration.Latency)
	}
	if !configuration.Recursive {
		t.Fatal("expected recursive to be true")
	}
	if len(configuration.Filters) != 1 {
		t.Fatalf("expected one filter, got %d", len(configuration.Filters))
	}
}

func TestLoadConfigurationRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "paths:\n  - /w\nbogus: true\n")

	if _, err := LoadConfiguration(path); err == nil {
		t.Fatal("expected strict unmarshaling to reject an unknown field")
	}
}

func TestConfigurationToOptions(t *testing.T) {
	configuration := &Configuration{
		Paths:   []string{"/w"},
		Latency: 1,
		Backend: "kqueue",
		Filters: []FilterConfiguration{
			{Pattern: `\.tmp$`, Exclude: true},
		},
	}

	options, err := configuration.ToOptions(nil)
	if err != nil {
		t.Fatal("failed to convert configuration to options:", err)
	}
	if options.Backend != watch.BackendForceKqueue {
		t.Fatalf("unexpected backend: %v", options.Backend)
	}
	if len(options.Filters) != 1 || options.Filters[0].Polarity != watch.PolarityExclude {
		t.Fatalf("unexpected filters: %v", options.Filters)
	}
}

func TestConfigurationToOptionsUnknownBackend(t *testing.T) {
	configuration := &Configuration{Paths: []string{"/w"}, Backend: "bogus"}
	if _, err := configuration.ToOptions(nil); err == nil {
		t.Fatal("expected an error for an unknown backend name")
	}
}
