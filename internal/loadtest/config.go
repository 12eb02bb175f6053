// Package loadtest drives a running comprank server with generated lobbies
// and checks every answer against a local ranking of the same pool.
package loadtest

import (
	"time"

	"github.com/okian/comprank/internal/domain/model"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL    string        // Base URL of the service
	PoolPath   string        // Pool file the server ranks from
	NumLobbies int           // Number of lobbies to generate
	Opponents  int           // Opponent boards per lobby
	Workers    int           // Number of concurrent workers
	Seed       uint64        // Generator seed; equal seeds give equal lobbies
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for generated cases, empty to skip
	Verbose    bool          // Log every mismatch
}

// Case is one generated lobby and the ranking expected for it.
type Case struct {
	ID       string             `json:"id"`
	Lobby    model.Lobby        `json:"lobby"`
	Expected []model.ScoredComp `json:"expected"`
}

// Stats holds run statistics.
type Stats struct {
	LobbiesGenerated int
	Submitted        int
	Matched          int
	Mismatched       int
	Failed           int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
