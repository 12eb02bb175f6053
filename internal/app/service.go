// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/comprank/internal/adapters/process/detect"
	"github.com/okian/comprank/internal/adapters/process/refresh"
	"github.com/okian/comprank/internal/adapters/repository"
	"github.com/okian/comprank/internal/domain/model"
	"github.com/okian/comprank/internal/domain/ranking"
	"github.com/okian/comprank/pkg/logger"
	"github.com/okian/comprank/pkg/metrics"
)

// Invalidator is implemented by pool sources that cache.
type Invalidator interface {
	Invalidate()
}

// Watcher is implemented by pool sources that can follow file changes.
type Watcher interface {
	Watch(ctx context.Context) error
}

// Service ranks compositions and fronts the external collaborators.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	pool      repository.PoolSource
	refresher refresh.MetaRefresher
	detector  detect.UnitDetector

	// Configuration
	watchPool bool

	// State
	started     bool
	cancelWatch context.CancelFunc
	watchDone   chan struct{}

	// Stats
	rankings      int64
	rankingErrors int64
	refreshes     int64
	refreshErrors int64
	detections    int64
	detectErrors  int64
	lastPoolSize  int
	lastRefresh   time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPoolSource sets where compositions come from.
func WithPoolSource(src repository.PoolSource) Option {
	return func(s *Service) {
		if src != nil {
			s.pool = src
		}
	}
}

// WithRefresher sets the meta refresh collaborator.
func WithRefresher(r refresh.MetaRefresher) Option {
	return func(s *Service) {
		if r != nil {
			s.refresher = r
		}
	}
}

// WithDetector sets the unit detection collaborator.
func WithDetector(d detect.UnitDetector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithPoolWatch makes Start follow pool file changes when the source supports it.
func WithPoolWatch(enabled bool) Option {
	return func(s *Service) {
		s.watchPool = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. Without options it reads the default pool
// file and runs the default refresh pipeline and detector.
func New(opts ...Option) *Service {
	s := &Service{
		pool:      repository.NewFileSource(repository.DefaultPath),
		refresher: refresh.New(),
		detector:  detect.New(),
		logger:    logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start begins background work. It is safe to call more than once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if w, ok := s.pool.(Watcher); ok && s.watchPool {
		wctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		s.cancelWatch = cancel
		s.watchDone = done
		go func() {
			defer close(done)
			if err := w.Watch(wctx); err != nil {
				s.logger.Warn(wctx, "pool watcher stopped", logger.Error(err))
			}
		}()
	}

	s.started = true
	s.logger.Info(ctx, "composition ranking service started", logger.Bool("watch_pool", s.cancelWatch != nil))
	return nil
}

// Stop ends background work started by Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.cancelWatch != nil {
		s.cancelWatch()
		<-s.watchDone
		s.cancelWatch = nil
		s.watchDone = nil
	}
	s.started = false
	s.logger.Info(context.Background(), "composition ranking service stopped")
}

// BestComps parses a lobby payload and ranks the current pool against it.
// It returns either the full ranking (possibly empty) or a single error.
func (s *Service) BestComps(ctx context.Context, lobbyJSON []byte) ([]model.ScoredComp, error) {
	lobby, err := model.DecodeLobby(lobbyJSON)
	if err != nil {
		err = model.WrapKind("service.best_comps", model.ErrInvalidInput, err)
		s.recordRankingError(ctx, err)
		return nil, err
	}
	return s.Rank(ctx, lobby)
}

// Rank ranks the current pool against lobby.
func (s *Service) Rank(ctx context.Context, lobby model.Lobby) ([]model.ScoredComp, error) {
	log := s.logger.With(logger.RequestID(uuid.NewString()))
	start := time.Now()

	pool, err := s.pool.Pool(ctx)
	if err != nil {
		s.recordRankingError(ctx, err)
		log.Warn(ctx, "composition pool unavailable", logger.Error(err))
		return nil, err
	}

	best := ranking.BestComps(lobby, pool)

	latency := float64(time.Since(start).Microseconds()) / 1000
	top := 0.0
	if len(best) > 0 {
		top = best[0].Score
	}
	metrics.RecordRanking(latency, len(best), top)

	s.mu.Lock()
	s.rankings++
	s.lastPoolSize = len(pool)
	s.mu.Unlock()

	log.Debug(ctx, "ranked compositions",
		logger.Int("pool", len(pool)),
		logger.Int("my_units", len(lobby.MyUnits)),
		logger.Int("opponents", len(lobby.EnemyUnits)),
		logger.Int("results", len(best)),
		logger.Float64("duration_ms", latency),
	)
	return best, nil
}

// UpdateMeta runs the meta refresh and drops any cached pool on success.
func (s *Service) UpdateMeta(ctx context.Context) error {
	if err := s.refresher.Refresh(ctx); err != nil {
		s.mu.Lock()
		s.refreshErrors++
		s.mu.Unlock()
		if !errors.Is(err, model.ErrExternalProcess) {
			err = model.WrapKind("service.update_meta", model.ErrExternalProcess, err)
		}
		return err
	}
	if inv, ok := s.pool.(Invalidator); ok {
		inv.Invalidate()
	}

	s.mu.Lock()
	s.refreshes++
	s.lastRefresh = time.Now()
	s.mu.Unlock()
	s.logger.Info(ctx, "meta refreshed")
	return nil
}

// DetectUnits passes imagePath to the detector and returns its findings.
func (s *Service) DetectUnits(ctx context.Context, imagePath string) ([]model.UnitDetection, error) {
	dets, err := s.detector.Detect(ctx, imagePath)

	s.mu.Lock()
	if err != nil {
		s.detectErrors++
	} else {
		s.detections++
	}
	s.mu.Unlock()

	if err != nil && !errors.Is(err, model.ErrExternalProcess) {
		err = model.WrapKind("service.detect_units", model.ErrExternalProcess, err)
	}
	return dets, err
}

// DetectAndRank detects units in imagePath and ranks the pool treating them
// as the player's board.
func (s *Service) DetectAndRank(ctx context.Context, imagePath string) ([]model.ScoredComp, error) {
	dets, err := s.DetectUnits(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	return s.Rank(ctx, LobbyFromDetections(dets))
}

// LobbyFromDetections builds a lobby whose own units are the detected
// champions. Opponent boards are not visible to the detector.
func LobbyFromDetections(dets []model.UnitDetection) model.Lobby {
	units := make([]string, len(dets))
	for i, d := range dets {
		units[i] = d.Champ
	}
	return model.Lobby{MyUnits: units, EnemyUnits: [][]string{}}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"rankings":      s.rankings,
		"rankingErrors": s.rankingErrors,
		"refreshes":     s.refreshes,
		"refreshErrors": s.refreshErrors,
		"detections":    s.detections,
		"detectErrors":  s.detectErrors,
		"lastPoolSize":  s.lastPoolSize,
	}
	if !s.lastRefresh.IsZero() {
		stats["lastRefresh"] = s.lastRefresh.UTC().Format(time.RFC3339)
	}
	return stats
}

func (s *Service) recordRankingError(ctx context.Context, err error) {
	kind := KindOf(err)
	metrics.RecordRankingError(kind)

	s.mu.Lock()
	s.rankingErrors++
	s.mu.Unlock()

	s.logger.Debug(ctx, "ranking request failed", logger.String("kind", kind), logger.Error(err))
}

// KindOf names the error kind of err for metrics and API codes.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrExternalProcess):
		return "external_process"
	case errors.Is(err, model.ErrParse):
		return "parse"
	case errors.Is(err, model.ErrDataUnavailable):
		return "data_unavailable"
	default:
		return "internal"
	}
}
