package watch

import (
	"errors"
)

// The following sentinel errors are the coarse-grained error kinds surfaced
// to the host, per the monitor's error handling contract. Call sites wrap
// them with pkg/errors.Wrap / Wrapf as appropriate so that
// errors.Is(err, ErrX) remains true after wrapping.
var (
	// ErrInvalidConfiguration indicates mutually exclusive backend flags,
	// negative latency, or an empty path list at start.
	ErrInvalidConfiguration = errors.New("invalid monitor configuration")
	// ErrFilterCompilationFailed indicates that at least one filter pattern
	// did not compile.
	ErrFilterCompilationFailed = errors.New("filter compilation failed")
	// ErrMonitorAlreadyRunning indicates that Run was invoked on a monitor
	// that is already running.
	ErrMonitorAlreadyRunning = errors.New("monitor is already running")
	// ErrBackendUnavailable indicates that the requested backend is not
	// compiled in for this host.
	ErrBackendUnavailable = errors.New("requested backend unavailable on this platform")
	// ErrResourceExhausted indicates that descriptor allocation, kernel
	// queue creation, or memory allocation failed.
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrBackendFatal indicates unrecoverable loss of the kernel queue or
	// stream.
	ErrBackendFatal = errors.New("backend fatal error")
)
