package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fixlane/api/pkg/response"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit creates a rate limiting middleware
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Next() // Skip rate limiting if no user (auth middleware should catch this)
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, userID)
		ctx := context.Background()

		// Increment counter
		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// If Redis fails, allow the request but log the error
			return c.Next()
		}

		// Set expiration on first request
		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			// Get TTL for retry-after header
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		// Add rate limit headers
		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// CreateLimit returns a rate limiter for job creation (per hour)
func (rl *RateLimiter) CreateLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("jobs:create", maxPerHour, time.Hour)
}

// RefreshLimit returns a rate limiter for snapshot refreshes (per minute)
func (rl *RateLimiter) RefreshLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("jobs:refresh", maxPerMin, time.Minute)
}

// ProgressLimit returns a rate limiter for workflow mutations (per minute)
func (rl *RateLimiter) ProgressLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("jobs:progress", maxPerMin, time.Minute)
}

// AssignLimit returns a rate limiter for claim attempts (per hour)
func (rl *RateLimiter) AssignLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("jobs:assign", maxPerHour, time.Hour)
}
