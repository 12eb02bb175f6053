package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/comprank/internal/adapters/repository"
	"github.com/okian/comprank/internal/loadtest"
	"github.com/okian/comprank/pkg/logger"
)

// Default configuration constants.
const (
	defaultLobbies     = 1000
	defaultOpponents   = 7
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		poolPath   = flag.String("pool", repository.DefaultPath, "Pool file the server ranks from")
		lobbies    = flag.Int("lobbies", defaultLobbies, "Number of lobbies to generate and submit")
		opponents  = flag.Int("opponents", defaultOpponents, "Opponent boards per lobby")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		seed       = flag.Uint64("seed", 1, "Generator seed")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for generated lobbies")
		verbose    = flag.Bool("verbose", false, "Log every failed or mismatched lobby")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:    *baseURL,
		PoolPath:   *poolPath,
		NumLobbies: *lobbies,
		Opponents:  max(*opponents, 0),
		Workers:    max(*workers, 1),
		Seed:       *seed,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := loadtest.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		os.Exit(1)
	}
}
