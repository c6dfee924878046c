package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/pages-service/internal/dto"
	"github.com/unrolled/secure"
	"golang.org/x/time/rate"
)

// SecurityHeadersMiddleware adds the standard hardening headers to every response
func SecurityHeadersMiddleware(isDevelopment bool) gin.HandlerFunc {
	sm := secure.New(secure.Options{
		IsDevelopment:      isDevelopment,
		ContentTypeNosniff: true,
		FrameDeny:          true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	})

	return func(c *gin.Context) {
		if err := sm.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipThrottle is a token bucket per client IP. Idle buckets are dropped after idleTTL.
type ipThrottle struct {
	mu        sync.Mutex
	buckets   map[string]*ipBucket
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPThrottle(rps float64, burst int) *ipThrottle {
	return &ipThrottle{
		buckets: make(map[string]*ipBucket),
		rps:     rate.Limit(rps),
		burst:   max(1, burst),
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

func (t *ipThrottle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) > t.idleTTL {
		for key, b := range t.buckets {
			if now.Sub(b.lastSeen) > t.idleTTL {
				delete(t.buckets, key)
			}
		}
		t.lastSweep = now
	}

	b, ok := t.buckets[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(t.rps, t.burst)}
		t.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// ThrottleMiddleware caps the overall request rate of each client IP.
// A non-positive rate disables it.
func ThrottleMiddleware(ratePerSecond float64, burst int) gin.HandlerFunc {
	if ratePerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	throttle := newIPThrottle(ratePerSecond, burst)
	return func(c *gin.Context) {
		if !throttle.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.Failure("Too many requests. Please slow down."))
			return
		}
		c.Next()
	}
}
