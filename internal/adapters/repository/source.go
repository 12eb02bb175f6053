// Package repository loads the candidate composition pool.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/okian/comprank/internal/domain/model"
	"github.com/okian/comprank/pkg/logger"
	"github.com/okian/comprank/pkg/metrics"
)

// DefaultPath is where the meta refresh pipeline writes the pool.
const DefaultPath = "data/latest/comps.json"

// PoolSource provides the candidate compositions for one ranking call.
type PoolSource interface {
	// Pool returns the whole pool or fails without partial data.
	Pool(ctx context.Context) ([]model.Composition, error)
}

// FileSource reads the pool from a JSON file written by the meta refresh
// pipeline. While Watch runs, parsed pools are cached and dropped whenever
// the file changes; otherwise every call reads the file.
type FileSource struct {
	path   string
	logger logger.Logger

	mu       sync.RWMutex
	cached   []model.Composition
	valid    bool
	gen      uint64 // bumped on every invalidation
	watching bool
}

// NewFileSource creates a source for the pool file at path.
func NewFileSource(path string, opts ...Option) *FileSource {
	s := &FileSource{
		path:   path,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the pool file location.
func (s *FileSource) Path() string { return s.path }

// Pool returns the composition pool. Read failures are ErrDataUnavailable and
// malformed content is ErrParse. The returned slice is the caller's to keep.
func (s *FileSource) Pool(ctx context.Context) ([]model.Composition, error) {
	const op = "repository.pool"
	if err := ctx.Err(); err != nil {
		return nil, model.WrapKind(op, model.ErrDataUnavailable, err)
	}

	s.mu.RLock()
	if s.valid {
		pool := slices.Clone(s.cached)
		s.mu.RUnlock()
		return pool, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	start := time.Now()
	pool, err := s.load()
	if err != nil {
		return nil, err
	}
	metrics.RecordPoolLoad(float64(time.Since(start).Milliseconds()))
	metrics.UpdatePoolSize(len(pool))
	s.logger.Debug(ctx, "composition pool loaded",
		logger.String("path", s.path),
		logger.Int("compositions", len(pool)),
	)

	s.mu.Lock()
	if s.watching && s.gen == gen {
		s.cached = pool
		s.valid = true
	}
	s.mu.Unlock()
	return slices.Clone(pool), nil
}

func (s *FileSource) load() ([]model.Composition, error) {
	const op = "repository.load"
	if s.path == "" {
		return nil, model.WrapKind(op, model.ErrDataUnavailable, ErrEmptyPath)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, model.WrapKind(op, model.ErrDataUnavailable, fmt.Errorf("failed to read %s: %w", s.path, err))
	}
	pool, err := model.DecodePool(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse compositions in %s: %w", s.path, err)
	}
	return pool, nil
}

// Invalidate drops any cached pool so the next call re-reads the file.
func (s *FileSource) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.valid = false
	s.gen++
	s.mu.Unlock()
}

// Watch caches the pool and invalidates it on changes to the pool file until
// ctx is done. The parent directory is watched because refresh pipelines
// often replace the file rather than write it in place.
func (s *FileSource) Watch(ctx context.Context) (err error) {
	if s.path == "" {
		return ErrEmptyPath
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	// Caching starts only once events are flowing.
	s.mu.Lock()
	if s.watching {
		s.mu.Unlock()
		return ErrAlreadyWatching
	}
	s.watching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watching = false
		s.cached = nil
		s.valid = false
		s.gen++
		s.mu.Unlock()
	}()

	target := filepath.Clean(s.path)
	s.logger.Info(ctx, "watching composition pool", logger.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op == fsnotify.Chmod {
				continue
			}
			s.Invalidate()
			metrics.RecordPoolReload()
			s.logger.Debug(ctx, "composition pool changed",
				logger.String("path", target),
				logger.String("op", event.Op.String()),
			)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn(ctx, "pool watcher error", logger.Error(werr))
		}
	}
}

// Watching reports whether Watch is currently running.
func (s *FileSource) Watching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watching
}
