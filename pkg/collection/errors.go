package collection

import "errors"

var (
	ErrTableNotFound   = errors.New("collection: table not found")
	ErrUnknownColumn   = errors.New("collection: field references unknown column")
	ErrUnknownRelation = errors.New("collection: field references unknown relation")
	ErrDuplicateField  = errors.New("collection: duplicate field")
	ErrDuplicateSlug   = errors.New("collection: duplicate slug")
	ErrNoDatabase      = errors.New("collection: no database configured")
	ErrMissingID       = errors.New("collection: missing record id")
	ErrFieldNotFound   = errors.New("collection: field not found")
)
