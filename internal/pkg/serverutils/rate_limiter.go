package serverutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisRateLimiter is a fixed-window distributed limiter keyed by scope
// and client subject. A nil client disables limiting (single-instance
// dev setups without Redis).
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisRateLimiter(client *redis.Client, prefix string) *RedisRateLimiter {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "wise:rate_limit"
	}
	return &RedisRateLimiter{
		client: client,
		prefix: trimmed,
	}
}

// Middleware limits requests per window for the given scope, keyed by
// client IP. On Redis failure the request is allowed through; limiting
// is protective, never a correctness dependency.
func (r *RedisRateLimiter) Middleware(scope string, limit int, window time.Duration) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if r == nil || r.client == nil || limit <= 0 {
			return ctx.Next()
		}

		key := fmt.Sprintf("%s:%s:%s", r.prefix, scope, ctx.IP())
		raw, err := rateLimitScript.Run(ctx.Context(), r.client, []string{key}, window.Milliseconds()).Result()
		if err != nil {
			return ctx.Next()
		}

		count, ok := raw.(int64)
		if ok && count > int64(limit) {
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(ErrorResponse(fiber.StatusTooManyRequests, "rate limit exceeded"))
		}
		return ctx.Next()
	}
}
