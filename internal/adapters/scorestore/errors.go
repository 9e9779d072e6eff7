package scorestore

import "errors"

// Sentinel kinds for score store errors.
var (
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrUnavailable  = errors.New("score store unavailable")
)
