package service

import (
	"context"
	"hash/fnv"

	"github.com/arenascope/podium/pkg/logger"
	"github.com/arenascope/podium/pkg/metrics"
)

const promotionShards = 64

// promotionState tracks where a game sits in its cache lifecycle. The
// state machine is monotonic: a promoted game never demotes for the
// lifetime of the process.
type promotionState uint8

const (
	stateNormal promotionState = iota
	statePromoting
	statePromoted
)

func shardIndex(gameID string) int {
	h := fnv.New32a()
	h.Write([]byte(gameID))
	return int(h.Sum32() % promotionShards)
}

// promotionState returns the game's current state without locking.
func (s *Service) promotionState(gameID string) promotionState {
	v, ok := s.promoted.Load(gameID)
	if !ok {
		return stateNormal
	}
	return v.(promotionState)
}

func (s *Service) markPromoted(gameID string) {
	s.promoted.Store(gameID, statePromoted)
}

// ensurePromoted runs the one-time promotion for gameID: snapshot the
// complete board from the durable store and seed the shared cache with
// one atomic bulk write. The per-shard mutex guarantees at most one
// seeding per game in this process; concurrent writers of the same game
// wait and then see the promoted state.
//
// Reports whether the game is promoted on return. Failure reverts to
// normal so a later write retries; the write that triggered promotion
// still succeeds because the store upsert already happened.
func (s *Service) ensurePromoted(ctx context.Context, gameID string) bool {
	if s.promotionState(gameID) == statePromoted {
		return true
	}

	mu := &s.promoMu[shardIndex(gameID)]
	mu.Lock()
	defer mu.Unlock()

	if s.promotionState(gameID) == statePromoted {
		return true
	}
	s.promoted.Store(gameID, statePromoting)

	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	// A ranking seeded by another instance is already complete; adopt it
	// instead of overwriting fresher member scores with a store snapshot.
	exists, err := s.rankCache.Exists(cctx, gameID)
	if err != nil {
		s.promoted.Store(gameID, stateNormal)
		metrics.RecordCacheError("rankcache", "exists")
		return false
	}
	if exists {
		s.markPromoted(gameID)
		return true
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	entries, err := s.store.All(sctx, gameID)
	if err != nil {
		s.promoted.Store(gameID, stateNormal)
		s.logger.Warn(ctx, "promotion snapshot failed",
			logger.String("gameID", gameID),
			logger.Error(err),
		)
		return false
	}

	if err := s.rankCache.BulkLoad(sctx, gameID, entries); err != nil {
		s.promoted.Store(gameID, stateNormal)
		metrics.RecordCacheError("rankcache", "bulk_load")
		s.logger.Warn(ctx, "promotion seed failed",
			logger.String("gameID", gameID),
			logger.Int("entries", len(entries)),
			logger.Error(err),
		)
		return false
	}

	s.markPromoted(gameID)
	metrics.RecordPromotion()
	metrics.RecordPromotionSeedSize(len(entries))
	s.logger.Info(ctx, "game promoted to shared cache",
		logger.String("gameID", gameID),
		logger.Int("entries", len(entries)),
	)
	return true
}
