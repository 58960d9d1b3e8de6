package api

import (
	"net"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the per-client limiter cache; least recently
// seen clients are evicted first.
const maxTrackedClients = 4096

// RateLimiter applies a per-client token bucket keyed by remote IP.
type RateLimiter struct {
	rps      int
	burst    int
	limiters *lru.Cache[string, *rate.Limiter]
	logger   *zap.SugaredLogger
}

func NewRateLimiter(rps, burst int, logger *zap.SugaredLogger) *RateLimiter {
	if burst < rps {
		burst = rps
	}
	cache, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	return &RateLimiter{
		rps:      rps,
		burst:    burst,
		limiters: cache,
		logger:   logger,
	}
}

// Allow reports whether a request from the given client key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(rl.rps), rl.burst)
		rl.limiters.Add(key, limiter)
	}
	return limiter.Allow()
}

// Middleware rejects over-limit requests with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !rl.Allow(key) {
			rl.logger.Warnw("Rate limit exceeded", "client", key, "path", r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", nil, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
