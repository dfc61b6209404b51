// Package ratelimit throttles requests per client.
package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Limiter decides whether a request from key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// idleTTL is how long an unused client bucket is kept.
const idleTTL = 10 * time.Minute

// KeyedLimiter keeps one token bucket per key.
type KeyedLimiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
	rps     rate.Limit
	burst   int
}

// New returns a limiter allowing rps requests per second per key with the
// given burst. A non-positive rps disables limiting.
func New(rps float64, burst int) Limiter {
	if rps <= 0 {
		return Unlimited{}
	}
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		buckets: cache.New(idleTTL, idleTTL),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Allow consumes a token from the bucket of key.
func (l *KeyedLimiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

func (l *KeyedLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if x, found := l.buckets.Get(key); found {
		l.buckets.Set(key, x, cache.DefaultExpiration)
		return x.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.buckets.Set(key, lim, cache.DefaultExpiration)
	return lim
}

// Clients returns the number of tracked keys.
func (l *KeyedLimiter) Clients() int {
	return l.buckets.ItemCount()
}

// Unlimited allows everything.
type Unlimited struct{}

func (Unlimited) Allow(string) bool { return true }
