// Package scorestore defines the durable score store interface and errors.
//
// The store is the system of record: one row per (game, player), upsert
// semantics over the composite key. Rankings served from here are ordered
// by score descending, player ID ascending on ties.
package scorestore

import (
	"context"

	"github.com/arenascope/podium/internal/domain/model"
)

// Store provides read/write access to authoritative scores.
type Store interface {
	// Upsert sets the authoritative score for (gameID, playerID),
	// replacing any previous value. Last write wins.
	Upsert(ctx context.Context, gameID, playerID string, score int64) error

	// TopN returns up to limit entries for gameID, best first. An unknown
	// game yields an empty slice, not an error.
	TopN(ctx context.Context, gameID string, limit int) ([]model.LeaderboardEntry, error)

	// All returns the game's complete ranking, best first. Promotion
	// seeds the shared cache from this.
	All(ctx context.Context, gameID string) ([]model.LeaderboardEntry, error)

	// UpsertBatch writes a full game ranking in one atomic batch. Used by
	// the reconciler; a failure leaves the previous rows intact.
	UpsertBatch(ctx context.Context, gameID string, entries []model.LeaderboardEntry) error

	// Count returns the number of rows stored for gameID.
	Count(ctx context.Context, gameID string) (int, error)
}
