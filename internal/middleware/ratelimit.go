package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/pkg/apperrors"
	"golang.org/x/time/rate"
)

// limiterStore keeps one token bucket per principal (per client IP for
// anonymous callers).
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	qps      rate.Limit
	burst    int
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	qps := rate.Limit(cfg.QPS)
	if cfg.QPS <= 0 {
		qps = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &limiterStore{
		limiters: make(map[string]*rate.Limiter),
		qps:      qps,
		burst:    burst,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.limiters[key]; ok {
		return l
	}
	l := rate.NewLimiter(s.qps, s.burst)
	s.limiters[key] = l
	return l
}

// RateLimitMiddleware throttles the admin surface. Must run after
// AuthMiddleware so it can key on the principal.
func RateLimitMiddleware(cfg config.RateLimitConfig) gin.HandlerFunc {
	store := newLimiterStore(cfg)
	return func(c *gin.Context) {
		key := c.ClientIP()
		if p := PrincipalFrom(c); p != nil {
			key = p.ID
		}

		if !store.get(key).Allow() {
			c.Error(apperrors.New(apperrors.ErrRateLimit, "rate limit exceeded", nil))
			c.Abort()
			return
		}

		c.Next()
	}
}
