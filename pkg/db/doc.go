// Package db holds the PostgreSQL plumbing shared by the ORM, the auth
// stores and the job queue: pool construction with startup retries,
// goose migrations from an embedded filesystem, transactions and health
// checks.
//
//	var cfg db.Config
//	_ = env.Parse(&cfg)
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, migrations.FS, cfg.MigrationsTable, logger); err != nil {
//		return err
//	}
//
// Anything that only runs queries should accept [Querier] so it works with
// both a pool and a transaction.
package db
