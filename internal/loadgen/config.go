// Package loadgen drives synthetic score-update traffic against a
// running instance and verifies what the leaderboard returns afterwards.
package loadgen

import "time"

// Config controls a load run.
type Config struct {
	BaseURL   string
	AuthToken string

	// Games is how many distinct games receive traffic; Players is the
	// distinct-player pool per game. Updates are spread so the first game
	// receives the bulk of the traffic and crosses the popularity
	// threshold while the rest stay cold.
	Games   int
	Players int
	Updates int

	Workers int
	Timeout time.Duration
	TopN    int
	Verbose bool
}

// Stats accumulates run results.
type Stats struct {
	UpdatesGenerated  int
	UpdatesSubmitted  int
	UpdatesSuccessful int
	UpdatesFailed     int

	BoardsVerified int
	OrderingErrors int

	Elapsed time.Duration
}
