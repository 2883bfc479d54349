package mw

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ClientRateLimiter keeps a token bucket per client. Buckets idle for longer
// than the expiry are evicted.
type ClientRateLimiter struct {
	clients *cache.Cache
	mu      sync.Mutex
	r       rate.Limit
	b       int
}

// NewClientRateLimiter creates a limiter allowing r requests per second with burst b.
func NewClientRateLimiter(r rate.Limit, b int, idle time.Duration) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients: cache.New(idle, 2*idle),
		r:       r,
		b:       b,
	}
}

// GetLimiter returns the bucket for a client, creating it on first use.
func (l *ClientRateLimiter) GetLimiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, found := l.clients.Get(client); found {
		limiter := v.(*rate.Limiter)
		l.clients.SetDefault(client, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(l.r, l.b)
	l.clients.SetDefault(client, limiter)
	return limiter
}

// ClientKey identifies the caller, preferring the configured header when set.
func ClientKey(header string) func(c *gin.Context) string {
	return func(c *gin.Context) string {
		if header != "" {
			if v := c.GetHeader(header); v != "" {
				return v
			}
		}
		return c.ClientIP()
	}
}

// RateLimiter is a middleware for per-client rate limiting.
func RateLimiter(limiter *ClientRateLimiter, key func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := limiter.GetLimiter(key(c))
		if !l.Allow() {
			wait := time.Duration(float64(time.Second) / float64(limiter.r))
			c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
