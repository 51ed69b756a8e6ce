package watch

import (
	"github.com/pkg/errors"
)

// Backend selects which monitor variant the factory constructs.
type Backend uint8

const (
	// BackendAuto selects the best available backend for the host:
	// kernel-event-queue monitor if compiled in, otherwise the polling
	// monitor. The kernel-native stream monitor and kernel-inotify monitor
	// that would otherwise precede the kernel-event-queue monitor in
	// preference order are external collaborators and are not selected by
	// this factory.
	BackendAuto Backend = iota
	// BackendForcePoll forces the polling monitor.
	BackendForcePoll
	// BackendForceKqueue forces the kernel-event-queue monitor, failing with
	// ErrBackendUnavailable if it is not compiled in for this host.
	BackendForceKqueue
)

// New constructs a Monitor for options.Backend (or the best available
// backend, for BackendAuto), wired to handler and, if non-nil, metrics.
func New(options Options, handler EventHandler, metrics *Metrics) (Monitor, error) {
	switch options.Backend {
	case BackendForcePoll:
		return NewPollMonitor(options, handler, metrics)
	case BackendForceKqueue:
		monitor, err := NewKqueueMonitor(options, handler, metrics)
		if err != nil {
			return nil, err
		}
		return monitor, nil
	case BackendAuto:
		if monitor, err := NewKqueueMonitor(options, handler, metrics); err == nil {
			return monitor, nil
		} else if !errors.Is(err, ErrBackendUnavailable) {
			return nil, err
		}
		return NewPollMonitor(options, handler, metrics)
	default:
		return nil, errors.Wrap(ErrInvalidConfiguration, "unknown backend")
	}
}
