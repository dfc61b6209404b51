package voting

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store keeps one window per streaming session. Idle sessions expire after ttl.
type Store struct {
	cache    *cache.Cache
	mu       sync.Mutex
	size     int
	minVotes int
}

// NewStore creates a session store for windows of the given size.
func NewStore(size, minVotes int, ttl time.Duration) *Store {
	return &Store{
		cache:    cache.New(ttl, ttl/2+time.Second),
		size:     size,
		minVotes: minVotes,
	}
}

// Get returns the current window of a session, or an empty one.
func (s *Store) Get(sessionID string) Window {
	if x, found := s.cache.Get(sessionID); found {
		return x.(Window)
	}
	return NewWindow(s.size, s.minVotes)
}

// Observe records a vote for the session and returns the stable result, if any.
// The session window is cleared once a result is emitted.
func (s *Store) Observe(sessionID string, v Vote) (Window, Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, res, ok := s.Get(sessionID).Observe(v)
	s.cache.Set(sessionID, w, cache.DefaultExpiration)
	return w, res, ok
}

// Dismiss clears the session window.
func (s *Store) Dismiss(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(sessionID)
}
