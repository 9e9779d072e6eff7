package service

import "errors"

// ErrInvalidArgument reports a request that fails validation before any
// tier is touched.
var ErrInvalidArgument = errors.New("invalid argument")
