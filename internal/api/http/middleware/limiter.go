package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/pawcare/vetclinic_backend/config"
)

const (
	defaultLimitMax    = 60
	defaultLimitWindow = 60 * time.Second
)

// NewLimiterWithRedis rate-limits per client IP with a sliding window kept
// in Redis, so every instance shares the counters.
func NewLimiterWithRedis(rdb *redis.Client, cfg config.RateLimit) fiber.Handler {
	storage := fiberredis.NewFromConnection(rdb)

	limit := cfg.Max
	if limit <= 0 {
		limit = defaultLimitMax
	}
	window := time.Duration(cfg.WindowSeconds) * time.Second
	if window <= 0 {
		window = defaultLimitWindow
	}

	return limiter.New(limiter.Config{
		Storage:           storage,
		Max:               limit,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  false,
				"message": "too many requests",
			})
		},
	})
}
