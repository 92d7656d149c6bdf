package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleAfter  = 10 * time.Minute
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

// ByIP buckets requests per client IP.
func ByIP(c *gin.Context) string { return "ip:" + c.ClientIP() }

// ByAccount buckets authenticated requests per account and falls back to the
// client IP before Auth has run.
func ByAccount(c *gin.Context) string {
	if id := GetAccountID(c); id != 0 {
		return "acc:" + strconv.FormatInt(id, 10)
	}
	return ByIP(c)
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu      sync.Mutex
	r       rate.Limit
	b       int
	buckets map[string]*bucket
}

func (s *limiterSet) allow(key string, now time.Time) bool {
	s.mu.Lock()
	bk, ok := s.buckets[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(s.r, s.b)}
		s.buckets[key] = bk
	}
	bk.lastSeen = now
	s.mu.Unlock()
	return bk.limiter.AllowN(now, 1)
}

func (s *limiterSet) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, bk := range s.buckets {
		if bk.lastSeen.Before(cutoff) {
			delete(s.buckets, k)
		}
	}
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimit is a token-bucket limiter: r requests per second with burst b per
// key. Idle buckets are swept until ctx is done.
func RateLimit(ctx context.Context, r rate.Limit, b int, key KeyFunc) gin.HandlerFunc {
	if key == nil {
		key = ByIP
	}
	set := &limiterSet{r: r, b: b, buckets: make(map[string]*bucket)}

	go func() {
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				set.sweep(now.Add(-limiterIdleAfter))
			}
		}
	}()

	return func(c *gin.Context) {
		if !set.allow(key(c), time.Now()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
