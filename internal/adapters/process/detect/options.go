// Package detect asks an external vision process which units are visible in
// a screenshot.
package detect

import (
	"time"

	"github.com/okian/comprank/internal/adapters/process"
	"github.com/okian/comprank/pkg/logger"
)

// Option applies a configuration option to the PythonDetector.
type Option func(*PythonDetector)

// WithPython sets the interpreter used to run the detector script.
func WithPython(bin string) Option {
	return func(d *PythonDetector) {
		if bin != "" {
			d.python = bin
		}
	}
}

// WithScript sets the detector script path.
func WithScript(path string) Option {
	return func(d *PythonDetector) {
		if path != "" {
			d.script = path
		}
	}
}

// WithTimeout bounds a single detection run.
func WithTimeout(timeout time.Duration) Option {
	return func(d *PythonDetector) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithRunner replaces the process runner.
func WithRunner(runner process.Runner) Option {
	return func(d *PythonDetector) {
		if runner != nil {
			d.runner = runner
		}
	}
}

// WithLogger sets a custom logger for the detector.
func WithLogger(l logger.Logger) Option {
	return func(d *PythonDetector) {
		if l != nil {
			d.logger = l
		}
	}
}
