package api

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// planCostUnit is the body size charged as one token. A request always costs at least one.
const planCostUnit = 16 << 10

type rateLimiter interface {
	AllowN(cost int) bool
}

type limiterAdapter struct {
	limiter *rate.Limiter
	now     func() time.Time
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &limiterAdapter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		now:     time.Now,
	}
}

// AllowN takes cost tokens. Costs above the burst are clamped so a single
// large manifest can still pass on a full bucket.
func (l *limiterAdapter) AllowN(cost int) bool {
	if l == nil || l.limiter == nil {
		return true
	}
	cost = min(max(cost, 1), l.limiter.Burst())
	return l.limiter.AllowN(l.now(), cost)
}

// requestCost charges one token plus one per full planCostUnit of declared body.
func requestCost(r *http.Request) int {
	if r.ContentLength <= 0 {
		return 1
	}
	return 1 + int(min(r.ContentLength, maxBodyBytes)/planCostUnit)
}

// rateLimitMiddleware rejects requests with 429 once the limiter cannot cover their cost.
func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cost := requestCost(r)
		if limiter.AllowN(cost) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", "1")
		w.Header().Set("X-RateLimit-Cost", strconv.Itoa(cost))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
