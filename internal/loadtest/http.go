package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/okian/comprank/internal/domain/model"
	"github.com/okian/comprank/pkg/logger"
)

// submitCases posts every case to /best-comps using a pool of workers and
// checks each answer.
func submitCases(ctx context.Context, cfg *Config, cases []Case, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "submitting lobbies", logger.Int("count", len(cases)), logger.Int("workers", cfg.Workers))

	client := &http.Client{Timeout: cfg.Timeout}
	url := cfg.BaseURL + "/best-comps"

	var submitted, matched, mismatched, failed int64

	caseChan := make(chan Case, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range caseChan {
				atomic.AddInt64(&submitted, 1)
				got, err := postLobby(ctx, client, url, c.Lobby)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Warn(ctx, "request failed", logger.String("case", c.ID), logger.Error(err))
					}
					continue
				}
				if err := verifyRanking(c.Expected, got); err != nil {
					atomic.AddInt64(&mismatched, 1)
					if cfg.Verbose {
						log.Warn(ctx, "ranking mismatch", logger.String("case", c.ID), logger.Error(err))
					}
					continue
				}
				atomic.AddInt64(&matched, 1)
			}
		}()
	}

	go func() {
		defer close(caseChan)
		for _, c := range cases {
			select {
			case <-ctx.Done():
				return
			case caseChan <- c:
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Matched = int(atomic.LoadInt64(&matched))
	stats.Mismatched = int(atomic.LoadInt64(&mismatched))
	stats.Failed = int(atomic.LoadInt64(&failed))
}

// postLobby sends one lobby and decodes the ranking.
func postLobby(ctx context.Context, client *http.Client, url string, lobby model.Lobby) ([]model.ScoredComp, error) {
	body, err := json.Marshal(lobby)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lobby: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var got []model.ScoredComp
	if err := json.Unmarshal(data, &got); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return got, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := &http.Client{Timeout: cfg.Timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Any 200 counts; the body is Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}
