package redis

import "errors"

var (
	ErrNoURL      = errors.New("redis: REDIS_URL is empty")
	ErrInvalidURL = errors.New("redis: invalid connection URL")
	// ErrUnreachable is returned by Open once every retry has failed.
	ErrUnreachable = errors.New("redis: server unreachable")
	ErrUnhealthy   = errors.New("redis: healthcheck failed")
)
