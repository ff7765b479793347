package serverutils

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware caps requests per client IP per minute, backed by
// Redis so the limit holds across replicas. A nil client or a Redis error
// fails open; throttling is best effort, not a security boundary.
func RateLimitMiddleware(rdb *redis.Client, perMinute int) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if rdb == nil || perMinute <= 0 {
			return ctx.Next()
		}

		key := fmt.Sprintf("ratelimit:%s", ctx.IP())

		count, err := rdb.Incr(ctx.Context(), key).Result()
		if err != nil {
			log.Printf("Rate limiter unavailable, allowing request: %v", err)
			return ctx.Next()
		}
		if count == 1 {
			if err := rdb.Expire(ctx.Context(), key, time.Minute).Err(); err != nil {
				log.Printf("Rate limiter expire failed: %v", err)
			}
		}

		if count > int64(perMinute) {
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(ErrorResponse(429, "Too many requests. Please slow down."))
		}

		return ctx.Next()
	}
}
