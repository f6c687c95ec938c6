package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache stores values of one type by string key.
type Cache[V any] interface {
	// Get returns ErrNotFound for missing and expired keys.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Codec converts values for byte-oriented backends.
type Codec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSON is the default Codec.
type JSON[V any] struct{}

func (JSON[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return data, nil
}

func (JSON[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrUnmarshal, err)
	}
	return v, nil
}

var loads singleflight.Group

type loaded[V any] struct {
	value V
}

// GetOrSet returns the cached value for key or loads and stores it.
// Concurrent misses on the same cache and key share one load. Load errors
// are returned and never cached; failures to store are ignored.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, load func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	res, err, _ := loads.Do(fmt.Sprintf("%p/%s", c, key), func() (any, error) {
		v, ttl, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = c.Set(ctx, key, v, ttl)
		return loaded[V]{value: v}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(loaded[V]).value, nil
}
