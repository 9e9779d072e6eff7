package rankcache

import (
	"context"
	"sync"

	"github.com/arenascope/podium/internal/domain/model"
)

// MemoryCache is a process-local Cache for development runs and tests,
// standing in when no Redis pool is wired. It keeps the same replace
// semantics and ordering contract as the Redis implementation.
type MemoryCache struct {
	mu     sync.RWMutex
	boards map[string]map[string]int64
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-memory rank cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{boards: make(map[string]map[string]int64)}
}

// WriteScore implements Cache.WriteScore.
func (c *MemoryCache) WriteScore(_ context.Context, gameID, playerID string, score int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	board, ok := c.boards[gameID]
	if !ok {
		board = make(map[string]int64)
		c.boards[gameID] = board
	}
	board[playerID] = score
	return nil
}

// ReadTop implements Cache.ReadTop.
func (c *MemoryCache) ReadTop(ctx context.Context, gameID string, limit int) ([]model.LeaderboardEntry, error) {
	entries, err := c.ReadAll(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return model.Truncate(entries, limit), nil
}

// ReadAll implements Cache.ReadAll.
func (c *MemoryCache) ReadAll(_ context.Context, gameID string) ([]model.LeaderboardEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	board := c.boards[gameID]
	entries := make([]model.LeaderboardEntry, 0, len(board))
	for playerID, score := range board {
		entries = append(entries, model.LeaderboardEntry{GameID: gameID, PlayerID: playerID, Score: score})
	}
	model.SortEntries(entries)
	return entries, nil
}

// Exists implements Cache.Exists.
func (c *MemoryCache) Exists(_ context.Context, gameID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.boards[gameID]) > 0, nil
}

// BulkLoad implements Cache.BulkLoad. The board swap happens under the
// lock, so readers never observe a partial seed.
func (c *MemoryCache) BulkLoad(_ context.Context, gameID string, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	board, ok := c.boards[gameID]
	if !ok {
		board = make(map[string]int64, len(entries))
		c.boards[gameID] = board
	}
	for _, e := range entries {
		board[e.PlayerID] = e.Score
	}
	return nil
}

// Games implements Cache.Games.
func (c *MemoryCache) Games(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	games := make([]string, 0, len(c.boards))
	for gameID := range c.boards {
		games = append(games, gameID)
	}
	return games, nil
}
