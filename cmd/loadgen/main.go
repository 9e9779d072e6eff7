package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/arenascope/podium/internal/loadgen"
)

// Default configuration constants.
const (
	defaultGames      = 5
	defaultPlayers    = 200
	defaultUpdates    = 10000
	defaultTopN       = 10
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the service")
		token   = flag.String("token", "", "Bearer token (empty when auth is disabled)")
		games   = flag.Int("games", defaultGames, "Number of distinct games")
		players = flag.Int("players", defaultPlayers, "Distinct players per game")
		updates = flag.Int("updates", defaultUpdates, "Number of score updates to submit")
		topN    = flag.Int("top", defaultTopN, "Leaderboard page size for verification")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:   *baseURL,
		AuthToken: *token,
		Games:     *games,
		Players:   *players,
		Updates:   *updates,
		TopN:      *topN,
		Workers:   *workers,
		Timeout:   *timeout,
		Verbose:   *verbose,
	}

	if err := loadgen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
