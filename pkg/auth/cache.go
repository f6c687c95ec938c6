package auth

import (
	"context"
	"time"

	"github.com/dmitrymomot/tabula/pkg/cache"
)

// CachedSessions fronts a Sessions store with a cache keyed by token.
type CachedSessions struct {
	Sessions
	cache cache.Cache[Session]
	ttl   time.Duration
}

// NewCachedSessions wraps next. Entries live for at most ttl and never past
// the session expiry.
func NewCachedSessions(next Sessions, c cache.Cache[Session], ttl time.Duration) *CachedSessions {
	return &CachedSessions{Sessions: next, cache: c, ttl: ttl}
}

func (s *CachedSessions) FindByToken(ctx context.Context, token string) (*Session, error) {
	sess, err := cache.GetOrSet(ctx, s.cache, "session:"+token, func(ctx context.Context) (Session, time.Duration, error) {
		found, err := s.Sessions.FindByToken(ctx, token)
		if err != nil {
			return Session{}, 0, err
		}
		ttl := min(s.ttl, time.Until(found.ExpiresAt))
		if ttl <= 0 {
			// Let the caller see the expiry; cache it only briefly.
			ttl = time.Second
		}
		return *found, ttl, nil
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *CachedSessions) Delete(ctx context.Context, token string) error {
	_ = s.cache.Delete(ctx, "session:"+token)
	return s.Sessions.Delete(ctx, token)
}

// DeleteByUserID drops the whole cache since entries are keyed by token.
func (s *CachedSessions) DeleteByUserID(ctx context.Context, userID string) error {
	_ = s.cache.Clear(ctx)
	return s.Sessions.DeleteByUserID(ctx, userID)
}

func (s *CachedSessions) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.Sessions.DeleteExpired(ctx, before)
	if n > 0 {
		_ = s.cache.Clear(ctx)
	}
	return n, err
}
