package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushub/identity-service/internal/core/port"
)

// IdentifierFunc extracts the identifier a limit is scoped to.
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a sliding-window limit.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter enforces sliding-window rules over a shared attempt store.
// When the store is unreachable the request is let through; throttling is a
// shield, not a dependency.
type RateLimiter struct {
	store  port.RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter builds a reusable limiter over the given store.
func NewRateLimiter(store port.RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source for tests.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier scopes a rule to the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// RateLimit returns a gin middleware enforcing the provided rule.
func (rl *RateLimiter) RateLimit(rule RateLimitRule) gin.HandlerFunc {
	if rule.Name == "" {
		rule.Name = "default"
	}

	return func(c *gin.Context) {
		if rl.store == nil || rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			c.Next()
			return
		}

		identifier, ok := rule.Identifier(c)
		if !ok || identifier == "" {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s", rule.Name, identifier)
		now := rl.now()
		ctx := c.Request.Context()

		if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
			rl.warn(rule.Name, identifier, err)
			c.Next()
			return
		}

		count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
		if err != nil {
			rl.warn(rule.Name, identifier, err)
			c.Next()
			return
		}

		if count >= rule.Limit {
			reset := now.Add(rule.Window)
			if oldest, has, err := rl.store.OldestAttempt(ctx, key, rule.Window, now); err == nil && has {
				reset = oldest.Add(rule.Window)
			}

			retryAfter := int(math.Ceil(reset.Sub(now).Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{
				Message: fmt.Sprintf("too many requests, try again in %d seconds", retryAfter),
			})
			return
		}

		if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
			rl.warn(rule.Name, identifier, err)
		}

		c.Next()
	}
}

func (rl *RateLimiter) warn(rule, identifier string, err error) {
	rl.logger.Warn("rate limit check failed",
		zap.String("rule", rule),
		zap.String("identifier", identifier),
		zap.Error(err))
}
