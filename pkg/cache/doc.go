// Package cache provides a small generic TTL cache with an in-memory LRU
// backend and a Redis backend. auth.CachedSessions uses it to avoid a
// database round trip on every session lookup.
//
//	sessions := cache.NewMemory[auth.Session](cache.WithMaxEntries(10_000))
//	defer sessions.Close()
//
//	// or, shared between instances:
//	sessions := cache.NewRedis[auth.Session](client, cache.WithPrefix("sessions"))
//
// A zero TTL passed to Set means the backend default; a negative TTL means
// no expiry.
package cache
