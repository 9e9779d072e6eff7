// Package rankcache implements the shared rank cache on Redis sorted
// sets: one sorted structure per game under leaderboard:{gameId}.
//
// Every operation returns an error on any Redis failure; callers treat
// that as a cache miss and fall back to the durable store. Nothing in
// this package may fail a client-visible write.
package rankcache

import (
	"context"

	"github.com/arenascope/podium/internal/domain/model"
)

// Cache is the shared rank cache contract.
type Cache interface {
	// WriteScore upserts one member of the game's sorted set. Idempotent
	// for identical (gameID, playerID, score).
	WriteScore(ctx context.Context, gameID, playerID string, score int64) error

	// ReadTop returns up to limit entries, best first, ties by player ID
	// ascending.
	ReadTop(ctx context.Context, gameID string, limit int) ([]model.LeaderboardEntry, error)

	// ReadAll returns the game's full ranking; used by the reconciler.
	ReadAll(ctx context.Context, gameID string) ([]model.LeaderboardEntry, error)

	// Exists reports whether the game has a cached ranking.
	Exists(ctx context.Context, gameID string) (bool, error)

	// BulkLoad seeds the full leaderboard in one atomic batch. Readers
	// never observe a partially seeded ranking.
	BulkLoad(ctx context.Context, gameID string, entries []model.LeaderboardEntry) error

	// Games enumerates every game currently cached.
	Games(ctx context.Context) ([]string, error)
}
