package core

import "errors"

var (
	ErrNoSchema      = errors.New("core: schema is required")
	ErrDuplicateSlug = errors.New("core: duplicate collection slug")
	ErrInvalidRoute  = errors.New("core: invalid route")
	ErrPlugin        = errors.New("core: plugin failed")
)
