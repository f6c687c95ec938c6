package db

import "errors"

var (
	ErrInvalidConfig = errors.New("db: invalid connection string")
	ErrConnect       = errors.New("db: cannot connect")
	ErrUnhealthy     = errors.New("db: healthcheck failed")
	ErrBeginTx       = errors.New("db: begin transaction")
	ErrDialect       = errors.New("db: goose dialect")
	ErrMigrate       = errors.New("db: apply migrations")
	ErrRollback      = errors.New("db: roll back migration")
)
