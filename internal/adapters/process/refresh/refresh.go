// Package refresh triggers the external pipeline that regenerates the
// composition pool file.
package refresh

import (
	"context"
	"time"

	"github.com/okian/comprank/internal/adapters/process"
	"github.com/okian/comprank/pkg/logger"
	"github.com/okian/comprank/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Default refresh configuration constants.
const (
	DefaultCommand = "npm run fetch-meta && npm run build-comps"
	defaultTimeout = 5 * time.Minute
	collaborator   = "meta_refresh"
)

// MetaRefresher regenerates the composition data. It reports only pass/fail.
type MetaRefresher interface {
	Refresh(ctx context.Context) error
}

// ShellRefresher runs the refresh pipeline through the platform shell.
// Concurrent calls share a single run and its outcome.
type ShellRefresher struct {
	command string
	dir     string
	timeout time.Duration
	runner  process.Runner
	logger  logger.Logger

	group singleflight.Group
}

// New creates a ShellRefresher with configuration options.
func New(opts ...Option) *ShellRefresher {
	r := &ShellRefresher{
		command: DefaultCommand,
		timeout: defaultTimeout,
		runner:  process.ExecRunner{},
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh runs the pipeline once, bounded by the configured timeout.
func (r *ShellRefresher) Refresh(ctx context.Context) error {
	ch := r.group.DoChan("refresh", func() (any, error) {
		// The shared run must not die with whichever caller started it.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return nil, r.run(runCtx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (r *ShellRefresher) run(ctx context.Context) error {
	cmd := process.Shell(r.command, r.dir)
	r.logger.Info(ctx, "running meta refresh", logger.String("command", r.command))

	start := time.Now()
	res, err := r.runner.Run(ctx, cmd)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		_ = metrics.RecordProcessRun(collaborator, metrics.OutcomeFailure, latency)
		r.logger.Error(ctx, "meta refresh failed", logger.Error(err))
		return err
	}

	_ = metrics.RecordProcessRun(collaborator, metrics.OutcomeSuccess, latency)
	metrics.UpdateLastRefresh(time.Now().Unix())
	r.logger.Info(ctx, "meta refresh completed",
		logger.Float64("duration_ms", latency),
		logger.Int("stdout_bytes", len(res.Stdout)),
	)
	return nil
}
