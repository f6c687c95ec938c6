package health

import "errors"

var (
	// ErrCheckFailed wraps a panic raised inside a check.
	ErrCheckFailed = errors.New("health: check failed")
	// ErrCheckTimeout is reported for checks still running when the probe deadline passes.
	ErrCheckTimeout = errors.New("health: check timed out")
)
