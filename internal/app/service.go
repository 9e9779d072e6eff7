// Package service provides the core leaderboard engine that implements
// the dependencies required by the HTTP API.
//
// Reads walk the tiers from cheapest to most authoritative: process-local
// hot cache, shared rank cache, durable store. Writes always land in the
// durable store first; cache tiers are updated only for games classified
// as popular, and a cache failure never fails a client write.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/arenascope/podium/internal/adapters/hotcache"
	"github.com/arenascope/podium/internal/adapters/rankcache"
	"github.com/arenascope/podium/internal/adapters/scorestore"
	"github.com/arenascope/podium/internal/domain/model"
	"github.com/arenascope/podium/internal/domain/popularity"
	"github.com/arenascope/podium/pkg/logger"
	"github.com/arenascope/podium/pkg/metrics"
)

const (
	defaultPopularityThreshold = 1000
	defaultMaxHotGames         = 1000
	defaultCacheTimeout        = 250 * time.Millisecond
	defaultStoreTimeout        = 2 * time.Second
)

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      scorestore.Store
	rankCache  rankcache.Cache
	classifier popularity.Classifier
	hot        *hotcache.HotTierCache

	// Configuration
	popularityThreshold int
	maxHotGames         int
	cacheTimeout        time.Duration
	storeTimeout        time.Duration

	// Promotion state. promoted maps gameID to its promotionState and is
	// read lock-free on the request path; promoMu serializes the
	// promotion sequence per game, sharded so unrelated games rarely
	// contend.
	promoted sync.Map
	promoMu  [promotionShards]sync.Mutex

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the durable score store.
func WithStore(store scorestore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRankCache sets the shared rank cache.
func WithRankCache(cache rankcache.Cache) Option {
	return func(s *Service) {
		if cache != nil {
			s.rankCache = cache
		}
	}
}

// WithClassifier sets the popularity classifier.
func WithClassifier(c popularity.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithHotCache sets the process-local hot tier.
func WithHotCache(hot *hotcache.HotTierCache) Option {
	return func(s *Service) {
		if hot != nil {
			s.hot = hot
		}
	}
}

// WithPopularityThreshold sets the distinct-player count above which a
// game is considered popular. Only used when the service builds its own
// classifier on Start.
func WithPopularityThreshold(threshold int) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.popularityThreshold = threshold
		}
	}
}

// WithMaxHotGames bounds the hot tier when the service builds it on
// Start.
func WithMaxHotGames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHotGames = n
		}
	}
}

// WithCacheTimeout bounds each shared-cache call on the request path.
func WithCacheTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cacheTimeout = d
		}
	}
}

// WithStoreTimeout bounds each durable-store call on the request path.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		popularityThreshold: defaultPopularityThreshold,
		maxHotGames:         defaultMaxHotGames,
		cacheTimeout:        defaultCacheTimeout,
		storeTimeout:        defaultStoreTimeout,
		logger:              nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes any components not supplied via options. Memory
// implementations back development runs and tests; production wiring
// injects Postgres and Redis adapters before Start.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard engine...")

	if s.store == nil {
		s.store = scorestore.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory score store")
	}
	if s.rankCache == nil {
		s.rankCache = rankcache.NewMemoryCache()
		s.logger.Info(ctx, "using in-memory rank cache")
	}
	if s.classifier == nil {
		s.classifier = popularity.NewMemoryClassifier(s.popularityThreshold)
		s.logger.Info(ctx, "using in-memory popularity classifier")
	}
	if s.hot == nil {
		hot, err := hotcache.New(s.maxHotGames)
		if err != nil {
			return fmt.Errorf("hot tier: %w", err)
		}
		s.hot = hot
	}

	s.started = true
	s.logger.Info(ctx, "leaderboard engine started",
		logger.Int("popularityThreshold", s.popularityThreshold),
		logger.Int("maxHotGames", s.maxHotGames),
		logger.Duration("cacheTimeout", s.cacheTimeout),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping leaderboard engine...")

	if s.store != nil {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "leaderboard engine stopped")
}

// UpdateScore applies a last-write-wins score replacement. The durable
// store is the only tier allowed to fail the request; everything after
// the upsert degrades to logs and counters.
func (s *Service) UpdateScore(ctx context.Context, update model.ScoreUpdate) error {
	if update.GameID == "" || update.PlayerID == "" {
		return ErrInvalidArgument
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	err := s.store.Upsert(sctx, update.GameID, update.PlayerID, update.Score)
	cancel()
	if err != nil {
		return fmt.Errorf("durable write %s/%s: %w", update.GameID, update.PlayerID, err)
	}
	metrics.RecordScoreUpdate()

	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if err := s.classifier.Record(cctx, update.GameID, update.PlayerID); err != nil {
		metrics.RecordCacheError("classifier", "record")
		s.logger.Warn(ctx, "activity record failed",
			logger.String("gameID", update.GameID),
			logger.Error(err),
		)
	}

	promoted := s.promotionState(update.GameID) == statePromoted
	if !promoted && s.classifier.IsPopular(cctx, update.GameID) {
		promoted = s.ensurePromoted(ctx, update.GameID)
	}
	if !promoted {
		return nil
	}

	if err := s.rankCache.WriteScore(cctx, update.GameID, update.PlayerID, update.Score); err != nil {
		metrics.RecordCacheError("rankcache", "write_score")
		s.logger.Warn(ctx, "shared cache write failed, store remains authoritative",
			logger.String("gameID", update.GameID),
			logger.String("playerID", update.PlayerID),
			logger.Error(err),
		)
	}

	// The cached materialization is stale either way; drop it so the
	// next read rebuilds from the shared tier.
	s.hot.Invalidate(update.GameID)

	return nil
}

// GetLeaderboard returns up to limit entries for gameID, best first,
// ties broken by player ID ascending. An unknown game yields an empty
// board. When every tier is unavailable it returns an empty board rather
// than an error.
func (s *Service) GetLeaderboard(ctx context.Context, gameID string, limit int) ([]model.LeaderboardEntry, error) {
	if gameID == "" || limit < 1 {
		return nil, ErrInvalidArgument
	}
	metrics.RecordRead()

	if entries, ok := s.hot.Get(gameID); ok {
		s.hot.Touch(gameID)
		metrics.RecordTierHit(metrics.TierHot)
		return model.Truncate(entries, limit), nil
	}
	metrics.RecordTierMiss(metrics.TierHot)

	if entries, ok := s.readShared(ctx, gameID); ok {
		metrics.RecordTierHit(metrics.TierShared)
		return model.Truncate(entries, limit), nil
	}
	metrics.RecordTierMiss(metrics.TierShared)

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	entries, err := s.store.TopN(sctx, gameID, limit)
	if err != nil {
		metrics.RecordTierMiss(metrics.TierStore)
		s.logger.Error(ctx, "all tiers unavailable, serving empty board",
			logger.String("gameID", gameID),
			logger.Error(err),
		)
		return []model.LeaderboardEntry{}, nil
	}
	metrics.RecordTierHit(metrics.TierStore)
	return entries, nil
}

// readShared serves a promoted game from the shared rank cache and
// refills the hot tier with the full materialized board. Returns false
// when the game is not promoted or the cache is unavailable; the caller
// falls through to the store.
func (s *Service) readShared(ctx context.Context, gameID string) ([]model.LeaderboardEntry, bool) {
	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if s.promotionState(gameID) != statePromoted {
		// Another instance may have promoted the game; a cached ranking
		// in the shared tier is the cross-process signal for that.
		exists, err := s.rankCache.Exists(cctx, gameID)
		if err != nil {
			metrics.RecordCacheError("rankcache", "exists")
			return nil, false
		}
		if !exists {
			return nil, false
		}
		s.markPromoted(gameID)
	}

	entries, err := s.rankCache.ReadAll(cctx, gameID)
	if err != nil {
		metrics.RecordCacheError("rankcache", "read_all")
		s.logger.Warn(ctx, "shared cache read failed, falling back to store",
			logger.String("gameID", gameID),
			logger.Error(err),
		)
		return nil, false
	}

	s.hot.Put(gameID, entries)
	return entries, true
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	promotedGames := 0
	s.promoted.Range(func(_, v interface{}) bool {
		if v.(promotionState) == statePromoted {
			promotedGames++
		}
		return true
	})

	stats := map[string]interface{}{
		"started":             s.started,
		"popularityThreshold": s.popularityThreshold,
		"maxHotGames":         s.maxHotGames,
		"promotedGames":       promotedGames,
	}

	if s.started {
		hotSize := s.hot.Len()
		stats["hotTierSize"] = hotSize

		metrics.UpdateHotTierSize(hotSize)
		metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	}

	return stats
}
