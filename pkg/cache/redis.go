package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores encoded values in Redis, so entries are shared by every
// process using the same prefix.
type Redis[V any] struct {
	client     redis.UniversalClient
	codec      Codec[V]
	prefix     string
	defaultTTL time.Duration
}

// RedisOption configures NewRedis.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix     string
	defaultTTL time.Duration
}

// WithPrefix namespaces keys as "prefix:key". Clear only touches prefixed
// keys when set.
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) { c.prefix = prefix }
}

// WithRedisTTL is used when Set gets a zero TTL. Default: 1h.
func WithRedisTTL(d time.Duration) RedisOption {
	return func(c *redisConfig) { c.defaultTTL = d }
}

// NewRedis uses JSON encoding; see NewRedisCodec for others.
func NewRedis[V any](client redis.UniversalClient, opts ...RedisOption) *Redis[V] {
	return NewRedisCodec[V](client, JSON[V]{}, opts...)
}

func NewRedisCodec[V any](client redis.UniversalClient, codec Codec[V], opts ...RedisOption) *Redis[V] {
	cfg := redisConfig{defaultTTL: time.Hour}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Redis[V]{client: client, codec: codec, prefix: cfg.prefix, defaultTTL: cfg.defaultTTL}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return r.codec.Unmarshal(data)
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.defaultTTL
	}
	// Redis reads 0 as "keep forever".
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Clear flushes the database when no prefix is set.
func (r *Redis[V]) Clear(ctx context.Context) error {
	if r.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Close leaves the client open; its owner closes it.
func (r *Redis[V]) Close() error { return nil }

func (r *Redis[V]) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

var _ Cache[any] = (*Redis[any])(nil)
