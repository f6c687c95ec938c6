package schema

import "errors"

var (
	ErrTableNotFound     = errors.New("schema: table not found")
	ErrDuplicateTable    = errors.New("schema: duplicate table")
	ErrDuplicateColumn   = errors.New("schema: duplicate column")
	ErrNoPrimaryKey      = errors.New("schema: table has no primary key")
	ErrMultiplePrimary   = errors.New("schema: table has more than one primary key")
	ErrUnknownColumn     = errors.New("schema: unknown column")
	ErrInvalidRelation   = errors.New("schema: invalid relation")
	ErrFailedToParse     = errors.New("schema: failed to parse definition")
	ErrFailedToReadInput = errors.New("schema: failed to read definition")
)
