package config

import (
	"errors"
)

// Error kinds returned by Load; callers branch with errors.Is.
var (
	// ErrInvalidConfig marks a configuration that parsed but failed
	// validation (empty listen address, non-positive threshold, default
	// limit above the maximum).
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig marks a failure reading or parsing a config source.
	ErrLoadConfig = errors.New("load config failed")
)
