package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending migration found at the root of migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, table string, log *slog.Logger) error {
	sqlDB, err := prepareGoose(pool, migrations, table, log)
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return errors.Join(ErrMigrate, err)
	}
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, table string, log *slog.Logger) error {
	sqlDB, err := prepareGoose(pool, migrations, table, log)
	if err != nil {
		return err
	}
	if err := goose.DownContext(ctx, sqlDB, "."); err != nil {
		return errors.Join(ErrRollback, err)
	}
	return nil
}

// The returned *sql.DB shares pool connections and must not be closed.
func prepareGoose(pool *pgxpool.Pool, migrations fs.FS, table string, log *slog.Logger) (*sql.DB, error) {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{log: log.With("component", "migrator")})
	goose.SetTableName(table)

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, errors.Join(ErrDialect, err)
	}
	return stdlib.OpenDBFromPool(pool), nil
}

type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

// Fatalf logs only; goose returns the error to the caller anyway.
func (g gooseLogger) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...))
}
