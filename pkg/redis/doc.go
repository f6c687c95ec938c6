// Package redis opens a go-redis client from env-parsed Config and exposes
// health and shutdown hooks for the application runtime.
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	sessions := cache.NewRedis[auth.Session](client, cache.WithPrefix("sessions"))
//	app := tabula.New(server,
//		tabula.WithHealthChecks(tabula.WithReadinessCheck("redis", redis.Healthcheck(client))),
//		tabula.WithShutdownHook(redis.Shutdown(client)),
//	)
//
// Both redis:// and rediss:// URLs are accepted.
package redis
