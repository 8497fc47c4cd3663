package chesserp

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Session is the opaque credential the ERP hands out at login, already
// normalized into a Cookie header value. It carries no expiry; validity is
// discovered lazily when a data request comes back 401/403.
type Session struct {
	Cookie     string
	ObtainedAt time.Time
}

// SessionProvider produces a credential for upstream requests.
// Implementations may cache; Invalidate discards whatever is cached so the
// next Get performs a fresh login. A fresh login is always a safe fallback.
type SessionProvider interface {
	Get(ctx context.Context) (Session, error)
	Invalidate()
}

// LoginFunc performs the actual login round trip.
type LoginFunc func(ctx context.Context) (Session, error)

const sessionKey = "chesserp"

// SessionCache reuses the last login for a while instead of re-authenticating
// on every request. Reuse is an optimization, not a correctness requirement,
// so entries simply age out.
type SessionCache struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, Session]
	login LoginFunc
}

func NewSessionCache(login LoginFunc) *SessionCache {
	return &SessionCache{
		cache: expirable.NewLRU[string, Session](1, nil, time.Minute*15),
		login: login,
	}
}

func (s *SessionCache) Get(ctx context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, hit := s.cache.Get(sessionKey)
	if hit {
		return cached, nil
	}

	session, err := s.login(ctx)
	if err != nil {
		return Session{}, err
	}
	s.cache.Add(sessionKey, session)
	return session, nil
}

func (s *SessionCache) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(sessionKey)
}
