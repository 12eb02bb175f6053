// Package refresh triggers the external pipeline that regenerates the
// composition pool file.
package refresh

import (
	"time"

	"github.com/okian/comprank/internal/adapters/process"
	"github.com/okian/comprank/pkg/logger"
)

// Option applies a configuration option to the ShellRefresher.
type Option func(*ShellRefresher)

// WithCommand sets the shell command line that runs the pipeline.
func WithCommand(line string) Option {
	return func(r *ShellRefresher) {
		if line != "" {
			r.command = line
		}
	}
}

// WithDir sets the working directory of the pipeline.
func WithDir(dir string) Option {
	return func(r *ShellRefresher) {
		r.dir = dir
	}
}

// WithTimeout bounds a single pipeline run.
func WithTimeout(timeout time.Duration) Option {
	return func(r *ShellRefresher) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithRunner replaces the process runner.
func WithRunner(runner process.Runner) Option {
	return func(r *ShellRefresher) {
		if runner != nil {
			r.runner = runner
		}
	}
}

// WithLogger sets a custom logger for the refresher.
func WithLogger(l logger.Logger) Option {
	return func(r *ShellRefresher) {
		if l != nil {
			r.logger = l
		}
	}
}
