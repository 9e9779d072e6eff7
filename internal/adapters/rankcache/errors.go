package rankcache

import "errors"

// ErrUnavailable wraps every Redis failure so callers can degrade on a
// single sentinel.
var ErrUnavailable = errors.New("rank cache unavailable")
