// Package popularity tracks per-game activity and classifies games as
// popular once their distinct active-player count exceeds a threshold.
//
// The signal is advisory only: it routes traffic between cache tiers and
// never carries ranking data. Classification fails closed: if the
// backing store is unreachable a game simply reads as not popular.
package popularity

import "context"

// Classifier is the popularity contract consumed by the engine.
type Classifier interface {
	// Record registers playerID as active in gameID. Idempotent: the
	// backing structure is a set, so recording the same player twice
	// never double-counts.
	Record(ctx context.Context, gameID, playerID string) error

	// IsPopular reports whether gameID's distinct active-player count
	// exceeds the threshold. Read-only, no side effects; any backend
	// failure reads as false.
	IsPopular(ctx context.Context, gameID string) bool
}
