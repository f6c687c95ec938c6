// Package health serves the liveness and readiness probes.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"postgres": db.Healthcheck(pool),
//		"redis":    redis.Healthcheck(client),
//	}))
//
// Both probes answer JSON and accept HEAD. Readiness is 503 while any check
// fails; ?check=redis runs only the named checks.
package health
