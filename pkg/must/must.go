package must

import (
	"io"
	"os"

	"github.com/fswatcher-go/fswatcher/pkg/logging"
)

// Close closes c, logging a warning if it fails. It's intended for cleanup
// paths (deferred closes) where the error can't meaningfully be propagated
// but shouldn't be silently dropped either.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging a warning if it fails.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}

// IOCopy copies from src to dst, logging a warning if the copy fails or is
// incomplete.
func IOCopy(dst io.Writer, src io.Reader, logger *logging.Logger) {
	if _, err := io.Copy(dst, src); err != nil {
		logger.Warnf("unable to copy from source to destination: %s", err.Error())
	}
}

// Shutdown calls Shutdown() on sd, logging a warning if it fails.
func Shutdown(sd interface{ Shutdown() error }, logger *logging.Logger) {
	if err := sd.Shutdown(); err != nil {
		logger.Warnf("unable to shutdown: %s", err.Error())
	}
}

// Succeed logs a warning if err is non-nil, naming the task that failed.
func Succeed(err error, task string, logger *logging.Logger) {
	if err != nil {
		logger.Warnf("unable to succeed at %s: %s", task, err.Error())
	}
}
