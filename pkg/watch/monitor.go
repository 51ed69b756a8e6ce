package watch

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/fswatcher-go/fswatcher/pkg/logging"
	"github.com/fswatcher-go/fswatcher/pkg/pathutil"
)

// MinPollLatency is the minimum effective latency for the polling monitor,
// in seconds: the cycle sleep is max(latency, MinPollLatency).
const MinPollLatency = 1.0

// MinSpinLatency is the minimum effective latency for the kernel-queue
// monitor, in seconds: the wait timeout is max(latency, MinSpinLatency).
const MinSpinLatency = 1.0

// EventHandler is the consumer callback invoked synchronously on the
// monitor's own goroutine with a non-empty, ordered batch of events. A
// non-nil error returned from the handler aborts Run, which returns that
// error to its caller unwrapped.
type EventHandler func(events []Event) error

// Options configures a monitor prior to Run. Setting any field after Run has
// been called has undefined effect; implementations reject such changes
// where practical.
type Options struct {
	// Paths is the ordered list of root paths to watch.
	Paths []string
	// Latency is the target inter-cycle interval, in seconds. It must not be
	// negative; values below the backend minimum are raised to it.
	Latency float64
	// Recursive indicates whether directories are watched recursively.
	Recursive bool
	// FollowSymlinks indicates whether symbolic links are followed during
	// traversal.
	FollowSymlinks bool
	// Filters is the list of path filters, applied in the order given.
	Filters []FilterSpec
	// Backend selects which monitor variant the factory constructs. It is
	// only consulted by New; constructing a PollMonitor or KqueueMonitor
	// directly ignores it.
	Backend Backend
	// Logger receives diagnostic and warning output. A nil logger discards
	// all output.
	Logger *logging.Logger
}

// validate checks the subset of Options invariants that are backend
// independent: a non-negative latency and a non-empty path list.
func (o *Options) validate() error {
	if len(o.Paths) == 0 {
		return errors.Wrap(ErrInvalidConfiguration, "no paths configured")
	}
	if o.Latency < 0 {
		return errors.Wrap(ErrInvalidConfiguration, "negative latency")
	}
	return nil
}

// effectiveLatency returns max(o.Latency, minimum), per the glossary's
// "effective interval is max(latency, backend_minimum)".
func (o *Options) effectiveLatency(minimum float64) float64 {
	if o.Latency < minimum {
		return minimum
	}
	return o.Latency
}

// Monitor is the abstract contract shared by all monitor backends: it owns
// paths, latency, recursion/symlink policy, filters, and the consumer
// callback, and exposes Run and Shutdown.
type Monitor interface {
	// Run compiles the configured filters, then blocks the calling
	// goroutine until Shutdown is called, the backend fails fatally, or the
	// handler returns an error. It must not be called more than once.
	Run() error
	// Shutdown requests that Run return at the next opportunity. It is safe
	// to call from any goroutine, including before Run starts and after it
	// has returned, and is safe to call more than once.
	Shutdown()
}

// base holds the state shared by every monitor backend: configuration,
// compiled filters, the handler, logging, and the run-once/shutdown-once
// bookkeeping described in the concurrency model (a monitor is
// single-threaded cooperative from the caller's perspective; the only
// cross-goroutine entry point is Shutdown).
type base struct {
	options Options
	handler EventHandler
	logger  *logging.Logger
	metrics *Metrics

	filters []*Filter

	running  int32
	shutdown chan struct{}
	once     sync.Once
}

// newBase validates options, canonicalizes the configured root paths, and
// constructs the shared base state; compiling filters is deferred to
// compileFilters (called from Run, per the contract that a compile failure
// aborts the run rather than construction).
func newBase(options Options, handler EventHandler, metrics *Metrics) (*base, error) {
	if err := options.validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no event handler configured")
	}

	canonicalPaths := make([]string, len(options.Paths))
	for i, path := range options.Paths {
		// A root that does not currently exist is still accepted: it may be
		// created later, at which point it generates Created events like any
		// other path. ResolveRoot falls back to a normalized (but
		// symlink-unresolved) path in that case instead of failing.
		resolved, err := pathutil.ResolveRoot(path)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "invalid root %q: %v", path, err)
		}
		canonicalPaths[i] = resolved
	}
	options.Paths = canonicalPaths

	logger := options.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.LevelDisabled)
	}

	return &base{
		options:  options,
		handler:  handler,
		logger:   logger,
		metrics:  metrics,
		shutdown: make(chan struct{}),
	}, nil
}

// markRunning transitions the monitor into the running state, returning
// ErrMonitorAlreadyRunning if it was already running.
func (b *base) markRunning() error {
	if !atomic.CompareAndSwapInt32(&b.running, 0, 1) {
		return ErrMonitorAlreadyRunning
	}
	return nil
}

// compileFilters compiles the configured filter specs, per the contract that
// filters are frozen (compiled once) at Run start.
func (b *base) compileFilters() error {
	filters, err := compileAll(b.options.Filters)
	if err != nil {
		return err
	}
	b.filters = filters
	return nil
}

// accept implements the shared path acceptance predicate using the
// monitor's compiled filters.
func (b *base) accept(path string) bool {
	return accept(b.filters, path)
}

// Shutdown implements Monitor.Shutdown. Closing shutdown is idempotent via
// sync.Once so that redundant calls are harmless, matching the note that
// closing an owned resource twice is a bug that must be prevented at a
// single site.
func (b *base) Shutdown() {
	b.once.Do(func() {
		close(b.shutdown)
	})
}

// isShuttingDown reports whether Shutdown has been requested.
func (b *base) isShuttingDown() bool {
	select {
	case <-b.shutdown:
		return true
	default:
		return false
	}
}

// deliver invokes the handler with batch if it is non-empty, per the
// contract that empty batches are never delivered.
func (b *base) deliver(batch []Event) error {
	if len(batch) == 0 {
		return nil
	}
	if b.metrics != nil {
		b.metrics.observeBatch(batch)
	}
	return b.handler(batch)
}
