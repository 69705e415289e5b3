package api

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/speaax/delve-companion/internal/api/response"
)

const (
	maxTrackedClients = 256
	clientIdleTTL     = 10 * time.Minute
)

var errRateLimited = errors.New("rate limit exceeded")

// clientLimiter keeps one token bucket per client address. Idle clients
// fall out of the cache and start with a full bucket.
type clientLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *expirable.LRU[string, *rate.Limiter]
}

// newClientLimiter returns nil when perSecond is not positive.
func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, clientIdleTTL),
	}
}

func (c *clientLimiter) get(key string) *rate.Limiter {
	if l, ok := c.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(c.limit, c.burst)
	c.limiters.Add(key, l)
	return l
}

// Middleware rejects requests over the limit with 429.
func (c *clientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}
		if !c.get(key).Allow() {
			w.Header().Set("Retry-After", "1")
			response.TooManyRequests(w, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
