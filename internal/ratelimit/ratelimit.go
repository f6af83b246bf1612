// Package ratelimit implements the per-client rate limiter named as an
// external collaborator in the core specification: the transport layer
// consults it before invoking the session store, and a refused request
// never touches protocol state.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

// bucketKey is the fixed-size digest a caller-supplied rate-limit key is
// hashed down to, so each map key has the same size however long the IDc
// is. Buckets are never removed: the map holds one entry per distinct key.
type bucketKey [16]byte

func hashKey(key string) bucketKey {
	full := blake2b.Sum256([]byte(key))
	var k bucketKey
	copy(k[:], full[:16])
	return k
}

// Limiter is a per-key token bucket. Zero value is not usable; construct
// with New.
type Limiter struct {
	rate    float64 // tokens replenished per second
	burst   float64 // bucket capacity
	now     func() time.Time
	mu      sync.Mutex
	buckets map[bucketKey]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

// New creates a Limiter allowing burst requests immediately and rate
// requests per second thereafter, tracked independently per key.
func New(rate, burst float64) *Limiter {
	return &Limiter{
		rate:    rate,
		burst:   burst,
		now:     time.Now,
		buckets: make(map[bucketKey]*bucket),
	}
}

// Allow reports whether a request for key should proceed, consuming one
// token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bk := hashKey(key)
	now := l.now()
	b, exists := l.buckets[bk]
	if !exists {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[bk] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.rate
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
