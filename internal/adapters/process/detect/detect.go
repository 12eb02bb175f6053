// Package detect asks an external vision process which units are visible in
// a screenshot.
package detect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/okian/comprank/internal/adapters/process"
	"github.com/okian/comprank/internal/domain/model"
	"github.com/okian/comprank/pkg/logger"
	"github.com/okian/comprank/pkg/metrics"
)

// Default detector configuration constants.
const (
	defaultTimeout = 30 * time.Second
	collaborator   = "unit_detector"
)

// DefaultScript is the detector script location relative to the repo root.
var DefaultScript = filepath.Join("scripts", "detect_units.py")

// UnitDetector infers which units appear in an image.
type UnitDetector interface {
	Detect(ctx context.Context, imagePath string) ([]model.UnitDetection, error)
}

// PythonDetector runs `<python> <script> <image>` and decodes the JSON array
// the script prints on stdout.
type PythonDetector struct {
	python  string
	script  string
	timeout time.Duration
	runner  process.Runner
	logger  logger.Logger
}

// New creates a PythonDetector with configuration options.
func New(opts ...Option) *PythonDetector {
	d := &PythonDetector{
		python:  defaultPython(),
		script:  DefaultScript,
		timeout: defaultTimeout,
		runner:  process.ExecRunner{},
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func defaultPython() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

// Detect runs the detector on imagePath. Every failure is ErrExternalProcess;
// undecodable output is additionally ErrParse.
func (d *PythonDetector) Detect(ctx context.Context, imagePath string) ([]model.UnitDetection, error) {
	const op = "detect.units"
	if _, err := os.Stat(d.script); err != nil {
		return nil, model.WrapKind(op, model.ErrExternalProcess,
			fmt.Errorf("detector script not found at %s; run from the repository root: %w", d.script, err))
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	dets, err := d.run(ctx, imagePath)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		_ = metrics.RecordProcessRun(collaborator, metrics.OutcomeFailure, latency)
		d.logger.Warn(ctx, "unit detection failed", logger.String("image", imagePath), logger.Error(err))
		return nil, err
	}

	_ = metrics.RecordProcessRun(collaborator, metrics.OutcomeSuccess, latency)
	metrics.RecordUnitsDetected(len(dets))
	d.logger.Debug(ctx, "units detected",
		logger.String("image", imagePath),
		logger.Int("count", len(dets)),
		logger.Float64("duration_ms", latency),
	)
	return dets, nil
}

func (d *PythonDetector) run(ctx context.Context, imagePath string) ([]model.UnitDetection, error) {
	const op = "detect.units"
	res, err := d.runner.Run(ctx, process.Command{Name: d.python, Args: []string{d.script, imagePath}})
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(res.Stdout) {
		return nil, model.WrapKind(op, model.ErrExternalProcess, errors.New("invalid UTF-8 from detector"))
	}
	dets, err := model.DecodeDetections(res.Stdout)
	if err != nil {
		return nil, model.WrapKind(op, model.ErrExternalProcess, fmt.Errorf("failed to parse detector JSON: %w", err))
	}
	return dets, nil
}
