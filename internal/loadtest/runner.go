package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/comprank/internal/domain/model"
	"github.com/okian/comprank/pkg/logger"
)

// Runner constants.
const (
	workerChannelMultiplier = 2
	percentageMultiplier    = 100
	directoryPermission     = 0o750
	filePermission          = 0o600
)

// ErrMismatch is returned when the server disagrees with the local ranking.
var ErrMismatch = errors.New("ranking mismatch")

// Run executes a complete load test and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting comprank load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("pool", cfg.PoolPath),
		logger.Int("lobbies", cfg.NumLobbies),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
	)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Load the pool the server ranks from
	pool, err := loadPool(cfg.PoolPath)
	if err != nil {
		return stats, err
	}

	// Step 3: Generate lobbies with expected rankings
	cases := generateCases(ctx, cfg, pool, stats)

	// Step 4: Submit and verify concurrently
	submitCases(ctx, cfg, cases, stats)

	// Step 5: Save cases to file
	if cfg.OutputFile != "" {
		if err := saveCasesToFile(cfg.OutputFile, cases); err != nil {
			log.Warn(ctx, "failed to save cases to file", logger.Error(err))
		} else {
			log.Info(ctx, "cases saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("load test interrupted: %w", err)
	}
	if stats.Mismatched > 0 || stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d mismatched, %d failed of %d",
			ErrMismatch, stats.Mismatched, stats.Failed, stats.Submitted)
	}
	return stats, nil
}

func loadPool(path string) ([]model.Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool %s: %w", path, err)
	}
	pool, err := model.DecodePool(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool %s: %w", path, err)
	}
	return pool, nil
}

// saveCasesToFile writes the generated cases as an indented JSON array.
func saveCasesToFile(filename string, cases []Case) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cases: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var matchRate, lobbiesPerSecond float64

	if stats.Submitted > 0 {
		matchRate = float64(stats.Matched) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		lobbiesPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("lobbiesGenerated", stats.LobbiesGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("matched", stats.Matched),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("matchRate", matchRate),
		logger.Float64("lobbiesPerSecond", lobbiesPerSecond),
	)
}
