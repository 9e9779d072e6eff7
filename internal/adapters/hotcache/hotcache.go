// Package hotcache is the process-local leaderboard tier. It holds fully
// materialized rankings for the most recently read games, bounded by an
// LRU so memory stays capped no matter how many games exist.
package hotcache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arenascope/podium/internal/domain/model"
	"github.com/arenascope/podium/pkg/metrics"
)

// HotTierCache caches per-game leaderboard slices. Entries are copied on
// the way in and out, so callers can never mutate cached state through a
// returned slice.
type HotTierCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, []model.LeaderboardEntry]
}

// New creates a cache bounded to capacity games. Capacity must be
// positive.
func New(capacity int) (*HotTierCache, error) {
	c, err := lru.New[string, []model.LeaderboardEntry](capacity)
	if err != nil {
		return nil, err
	}
	metrics.UpdateHotTierCapacity(capacity)
	return &HotTierCache{lru: c}, nil
}

// Get returns a copy of the cached ranking for gameID, if present.
// Lookup order is not refreshed; recency moves only on Touch or Put.
func (h *HotTierCache) Get(gameID string) ([]model.LeaderboardEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, ok := h.lru.Peek(gameID)
	if !ok {
		return nil, false
	}
	return cloneEntries(entries), true
}

// Put stores a copy of entries for gameID, marking it most recently
// used.
func (h *HotTierCache) Put(gameID string, entries []model.LeaderboardEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if evicted := h.lru.Add(gameID, cloneEntries(entries)); evicted {
		metrics.RecordHotTierEviction()
	}
	metrics.UpdateHotTierSize(h.lru.Len())
}

// Touch marks gameID most recently used without changing its value.
func (h *HotTierCache) Touch(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lru.Get(gameID)
}

// Invalidate drops gameID so the next read falls through to a fresher
// tier.
func (h *HotTierCache) Invalidate(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lru.Remove(gameID)
	metrics.UpdateHotTierSize(h.lru.Len())
}

// Len reports how many games are currently cached.
func (h *HotTierCache) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lru.Len()
}

func cloneEntries(entries []model.LeaderboardEntry) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, len(entries))
	copy(out, entries)
	return out
}
