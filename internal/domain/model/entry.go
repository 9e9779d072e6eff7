// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// LeaderboardEntry is one (game, player) score. A player has at most one
// entry per game; a new score replaces the previous one (last write wins,
// scores never accumulate).
type LeaderboardEntry struct {
	GameID   string `json:"gameId,omitempty"`
	PlayerID string `json:"userId"`
	Score    int64  `json:"score"`
}

// ScoreUpdate mirrors the POST /update-score request body.
type ScoreUpdate struct {
	EventType string    // must be "scoreUpdate"
	GameID    string    // from the URL path
	PlayerID  string    // subject player identifier
	Score     int64     // replacement score, >= 0
	TS        time.Time // client timestamp, never in the future
}

// SortEntries orders entries by score descending, player ID ascending on
// ties. Every tier returns rankings in this order so results are
// identical no matter which tier answers.
func SortEntries(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
}

// Truncate returns at most limit entries. The input must already be
// sorted; the slice is not copied.
func Truncate(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	if limit < len(entries) {
		return entries[:limit]
	}
	return entries
}
