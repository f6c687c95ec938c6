package api

import "errors"

var (
	ErrAlreadyPrefixed = errors.New("api: path is already prefixed")
	ErrMissingPrefix   = errors.New("api: path is not under the api prefix")
	ErrInvalidBody     = errors.New("api: invalid request body")
	ErrRouteNotFound   = errors.New("api: route not found")
	ErrEmptyRouteID    = errors.New("api: empty route id")
)
