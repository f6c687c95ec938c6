package orm

import "errors"

var (
	ErrNotFound            = errors.New("orm: record not found")
	ErrUnknownColumn       = errors.New("orm: unknown column")
	ErrUnknownRelation     = errors.New("orm: unknown relation")
	ErrUnsupportedRelation = errors.New("orm: relations over composite keys are not supported")
	ErrNoValues            = errors.New("orm: no values to write")
	ErrInvalidOrder        = errors.New("orm: invalid order direction")
	ErrQueryFailed         = errors.New("orm: query failed")
)
