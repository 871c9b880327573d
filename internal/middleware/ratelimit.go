// internal/middleware/ratelimit.go
package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"cardio-wsi-back/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its bucket.
const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	clock     clockwork.Clock

	limit    rate.Limit
	burst    int
	interval time.Duration
}

// NewRateLimiter allows perMinute requests per client with a burst of the
// same size. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	l := &RateLimiter{
		visitors: make(map[string]*visitor),
		clock:    clockwork.NewRealClock(),
		limit:    rate.Inf,
	}
	if perMinute > 0 {
		l.interval = time.Minute / time.Duration(perMinute)
		l.limit = rate.Every(l.interval)
		l.burst = perMinute
	}
	return l
}

func (l *RateLimiter) allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}

	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= visitorTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) >= visitorTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// retryAfter is the wait for one token, rounded up to whole seconds.
func (l *RateLimiter) retryAfter() int {
	return int(math.Ceil(l.interval.Seconds()))
}

func (l *RateLimiter) visitorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(l.retryAfter()))
			response.RateLimited(c)
			return
		}
		c.Next()
	}
}
