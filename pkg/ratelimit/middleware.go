package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "pentamaths/pkg/errors"
	"pentamaths/pkg/metrics"
)

type Limiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

type RateLimitConfig struct {
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
	MaxAge          time.Duration
}

var errTooManyRequests = apperrors.ErrRateLimited.WithMessage("Too many requests. Please try again later.")

// RateLimitMiddleware keys token buckets by client IP. The idle-bucket sweeper
// stops when ctx is cancelled.
func RateLimitMiddleware(ctx context.Context, config RateLimitConfig) gin.HandlerFunc {
	limiters := make(map[string]*Limiter)
	var mu sync.RWMutex

	if config.CleanupInterval > 0 {
		go func() {
			ticker := time.NewTicker(config.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				mu.Lock()
				now := time.Now()
				for ip, limiter := range limiters {
					limiter.mu.Lock()
					lastSeen := limiter.lastSeen
					limiter.mu.Unlock()
					if now.Sub(lastSeen) > config.MaxAge {
						delete(limiters, ip)
					}
				}
				mu.Unlock()
			}
		}()
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if clientIP == "" {
			clientIP = c.RemoteIP()
		}

		mu.RLock()
		limiter, exists := limiters[clientIP]
		mu.RUnlock()

		if !exists {
			mu.Lock()
			limiter, exists = limiters[clientIP]
			if !exists {
				limiter = &Limiter{
					limiter:  rate.NewLimiter(rate.Limit(config.RPS), config.Burst),
					lastSeen: time.Now(),
				}
				limiters[clientIP] = limiter
			}
			mu.Unlock()
		}

		limiter.mu.Lock()
		limiter.lastSeen = time.Now()
		limiter.mu.Unlock()

		if !limiter.limiter.Allow() {
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			c.Header("X-RateLimit-Limit", strconv.Itoa(config.Burst))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", retryAfter(config.RPS))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apperrors.ToErrorResponse(errTooManyRequests))
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Burst))
		remaining := int(limiter.limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

// retryAfter is the whole number of seconds until one token refills.
func retryAfter(rps float64) string {
	if rps <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / rps)))
}
