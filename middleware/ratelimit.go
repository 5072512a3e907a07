package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type rateLimiter struct {
	clients   map[string]*client
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// RateLimiter applies a token bucket per client IP.
func RateLimiter(rps float64, burst int) gin.HandlerFunc {
	return newRateLimiter(rps, burst).handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	lim := rl.get(c.ClientIP())
	if !lim.Allow() {
		r := lim.Reserve()
		retry := r.Delay()
		r.Cancel()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"message":     "Rate limit exceeded",
			"retry_after": retry.Seconds(),
		})
		return
	}
	c.Next()
}

func (rl *rateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		rl.cleanup(now)
		rl.lastSweep = now
	}

	cl, ok := rl.clients[ip]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// cleanup drops clients idle for longer than limiterIdleTTL. Caller holds mu.
func (rl *rateLimiter) cleanup(now time.Time) {
	for ip, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(rl.clients, ip)
		}
	}
}
