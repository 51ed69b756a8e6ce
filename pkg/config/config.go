// Package config loads YAML-based monitor configuration from disk, in the
// same load/unmarshal idiom the ambient encoding package uses for any other
// configuration file.
package config

import (
	"github.com/pkg/errors"

	"github.com/fswatcher-go/fswatcher/pkg/encoding"
	"github.com/fswatcher-go/fswatcher/pkg/logging"
	"github.com/fswatcher-go/fswatcher/pkg/watch"
)

// FilterConfiguration is the YAML representation of a watch.FilterSpec.
type FilterConfiguration struct {
	// Pattern is the filter's regular expression text.
	Pattern string `yaml:"pattern"`
	// Exclude marks the filter as an exclude filter. The zero value
	// (false) is an include filter.
	Exclude bool `yaml:"exclude"`
	// CaseSensitive indicates whether matching is case sensitive.
	CaseSensitive bool `yaml:"caseSensitive"`
	// Extended selects the extended regex flavor where available.
	Extended bool `yaml:"extended"`
}

// toSpec converts a FilterConfiguration to a watch.FilterSpec.
func (f FilterConfiguration) toSpec() watch.FilterSpec {
	polarity := watch.PolarityInclude
	if f.Exclude {
		polarity = watch.PolarityExclude
	}
	return watch.FilterSpec{
		Text:          f.Pattern,
		Polarity:      polarity,
		CaseSensitive: f.CaseSensitive,
		Extended:      f.Extended,
	}
}

// Configuration is the YAML configuration object type for a monitor.
type Configuration struct {
	// Paths is the ordered list of root paths to watch.
	Paths []string `yaml:"paths"`
	// Latency is the target inter-cycle interval, in seconds.
	Latency float64 `yaml:"latency"`
	// Recursive indicates whether directories are watched recursively.
	Recursive bool `yaml:"recursive"`
	// FollowSymlinks indicates whether symbolic links are followed.
	FollowSymlinks bool `yaml:"followSymlinks"`
	// Backend selects the monitor backend: "auto" (default), "poll", or
	// "kqueue".
	Backend string `yaml:"backend"`
	// Filters is the list of path filters.
	Filters []FilterConfiguration `yaml:"filters"`
}

// LoadConfiguration attempts to load a YAML-based monitor configuration file
// from the specified path.
func LoadConfiguration(path string) (*Configuration, error) {
	result := &Configuration{}
	if err := encoding.LoadAndUnmarshalYAML(path, result); err != nil {
		return nil, err
	}
	return result, nil
}

// backendFromName converts a configuration backend name to a watch.Backend.
func backendFromName(name string) (watch.Backend, error) {
	switch name {
	case "", "auto":
		return watch.BackendAuto, nil
	case "poll":
		return watch.BackendForcePoll, nil
	case "kqueue":
		return watch.BackendForceKqueue, nil
	default:
		return 0, errors.Errorf("unknown backend %q", name)
	}
}

// ToOptions converts a loaded Configuration into watch.Options, ready to
// pass to watch.New. The caller still supplies the event handler to
// watch.New; logger (which may be nil) is attached to the result as given.
func (c *Configuration) ToOptions(logger *logging.Logger) (watch.Options, error) {
	backend, err := backendFromName(c.Backend)
	if err != nil {
		return watch.Options{}, errors.Wrap(err, "invalid backend configuration")
	}

	filters := make([]watch.FilterSpec, len(c.Filters))
	for i, f := range c.Filters {
		filters[i] = f.toSpec()
	}

	return watch.Options{
		Paths:          c.Paths,
		Latency:        c.Latency,
		Recursive:      c.Recursive,
		FollowSymlinks: c.FollowSymlinks,
		Filters:        filters,
		Backend:        backend,
		Logger:         logger,
	}, nil
}
