package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	expires time.Time
	value   V
	key     string
}

func (it *item[V]) expired(now time.Time) bool {
	return !it.expires.IsZero() && now.After(it.expires)
}

// Memory is a process-local cache. With WithMaxEntries set it evicts the
// least recently used entry once full.
type Memory[V any] struct {
	items  map[string]*list.Element
	lru    *list.List
	done   chan struct{}
	cfg    memoryConfig
	mu     sync.Mutex
	closed bool
}

type memoryConfig struct {
	defaultTTL time.Duration
	sweepEvery time.Duration
	maxEntries int
}

// MemoryOption configures NewMemory.
type MemoryOption func(*memoryConfig)

// WithDefaultTTL is used when Set gets a zero TTL. Default: 1h.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.defaultTTL = d }
}

// WithSweepInterval sets how often expired entries are dropped in the
// background. Zero disables the sweeper. Default: 1m.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.sweepEvery = d }
}

// WithMaxEntries bounds the cache size. Zero means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(c *memoryConfig) { c.maxEntries = n }
}

func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := memoryConfig{defaultTTL: time.Hour, sweepEvery: time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Memory[V]{
		items: make(map[string]*list.Element),
		lru:   list.New(),
		done:  make(chan struct{}),
		cfg:   cfg,
	}
	if cfg.sweepEvery > 0 {
		go m.sweepLoop()
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	el, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	it := el.Value.(*item[V])
	if it.expired(time.Now()) {
		m.remove(el)
		return zero, ErrNotFound
	}
	m.lru.MoveToFront(el)
	return it.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.cfg.defaultTTL
	}
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	if el, ok := m.items[key]; ok {
		it := el.Value.(*item[V])
		it.value, it.expires = value, expires
		m.lru.MoveToFront(el)
		return nil
	}

	if m.cfg.maxEntries > 0 && len(m.items) >= m.cfg.maxEntries {
		if oldest := m.lru.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.items[key] = m.lru.PushFront(&item[V]{key: key, value: value, expires: expires})
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.items)
	m.lru.Init()
	return nil
}

// Len counts stored entries, expired ones included until swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the sweeper. Set fails afterwards; reads keep working.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *Memory[V]) sweepLoop() {
	t := time.NewTicker(m.cfg.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *Memory[V]) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for el := m.lru.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*item[V]).expired(now) {
			m.remove(el)
		}
		el = prev
	}
}

// remove must be called with mu held.
func (m *Memory[V]) remove(el *list.Element) {
	m.lru.Remove(el)
	delete(m.items, el.Value.(*item[V]).key)
}

var _ Cache[any] = (*Memory[any])(nil)
