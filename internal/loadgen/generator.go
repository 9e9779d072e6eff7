package loadgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Traffic shaping constants.
const (
	maxScore = 1_000_000

	// hotGameShare is the percentage of updates aimed at the first game
	// so it crosses the popularity threshold during the run.
	hotGameShare = 70
	percentBase  = 100
)

// update is one request body plus its target game.
type update struct {
	GameID    string `json:"-"`
	EventType string `json:"eventType"`
	UserID    string `json:"userId"`
	Score     int64  `json:"score"`
	Timestamp string `json:"timestamp"`
}

func randInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateUpdates builds the full batch up front: uuid-named games and
// players, skewed toward one hot game.
func generateUpdates(cfg *Config, stats *Stats) []update {
	gameIDs := make([]string, cfg.Games)
	for i := range gameIDs {
		gameIDs[i] = "game-" + uuid.New().String()
	}

	// Player pools are per game so distinct-player counts are exact.
	players := make([][]string, cfg.Games)
	for g := range players {
		players[g] = make([]string, cfg.Players)
		for p := range players[g] {
			players[g][p] = "player-" + uuid.New().String()
		}
	}

	updates := make([]update, cfg.Updates)
	for i := range updates {
		g := 0
		if cfg.Games > 1 && randInt(percentBase) >= hotGameShare {
			g = 1 + int(randInt(int64(cfg.Games-1)))
		}
		updates[i] = update{
			GameID:    gameIDs[g],
			EventType: "scoreUpdate",
			UserID:    players[g][randInt(int64(cfg.Players))],
			Score:     randInt(maxScore),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
	}

	stats.UpdatesGenerated = len(updates)
	return updates
}

func (u update) endpoint(baseURL string) string {
	return fmt.Sprintf("%s/v1/leaderboard/%s/update-score", baseURL, u.GameID)
}
