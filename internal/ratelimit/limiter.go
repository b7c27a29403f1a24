// Package ratelimit throttles mutating requests per identity with token
// buckets.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	defaultRPS   = 5
	defaultBurst = 10
	// idleTTL is how long an unused bucket is kept before cleanup removes it.
	idleTTL = 10 * time.Minute
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Pool holds one limiter per key.
type Pool struct {
	mu    sync.Mutex
	m     map[string]*entry
	rps   float64
	burst int
	now   func() time.Time
}

// NewPool falls back to 5 rps with a burst of 10 for non-positive settings.
func NewPool(rps float64, burst int) *Pool {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &Pool{
		m:     make(map[string]*entry),
		rps:   rps,
		burst: burst,
		now:   time.Now,
	}
}

func (p *Pool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.m[key]; ok {
		e.lastSeen = p.now()
		return e.limiter
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = &entry{limiter: l, lastSeen: p.now()}
	return l
}

// Allow consumes one token for key.
func (p *Pool) Allow(key string) bool {
	return p.get(key).AllowN(p.now(), 1)
}

// Cleanup forgets keys that have been idle longer than idleTTL and returns
// how many were removed.
func (p *Pool) Cleanup() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := p.now().Add(-idleTTL)
	removed := 0
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
			removed++
		}
	}
	return removed
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// RunCleanup calls Cleanup every interval until stop is closed.
func (p *Pool) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Cleanup()
		case <-stop:
			return
		}
	}
}

// KeyFunc picks the identity a request is charged to.
type KeyFunc func(c *gin.Context) string

// Middleware rejects requests over the limit with 429.
func Middleware(p *Pool, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.Allow(key(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
