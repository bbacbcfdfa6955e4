package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/devdesk/helpdesk/internal/config"
	"github.com/devdesk/helpdesk/internal/persistence"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

// RateLimiter bounds credential-guessing endpoints per client address
// using a fixed Redis window. When Redis is unreachable the request is
// allowed through; the limiter degrades open rather than taking down
// login.
type RateLimiter struct {
	redis  *persistence.Redis
	cfg    config.RateLimitConfig
	logger *zap.Logger
}

// NewRateLimiter constructs the limiter.
func NewRateLimiter(redis *persistence.Redis, cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{redis: redis, cfg: cfg, logger: logger}
}

// Limit returns a middleware enforcing the window for the named scope.
func (rl *RateLimiter) Limit(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.cfg.Enabled || rl.redis == nil || rl.redis.Client == nil {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", scope, c.IP())
		ctx := c.Context()

		count, err := rl.redis.Client.Incr(ctx, key).Result()
		if err != nil {
			rl.logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := rl.redis.Client.Expire(ctx, key, rl.cfg.Window()).Err(); err != nil {
				rl.logger.Warn("rate limiter expire failed", zap.Error(err))
			}
		}
		if count > int64(rl.cfg.MaxAttempts) {
			return apperrors.NewTooManyRequests("too many attempts, try again later")
		}
		return c.Next()
	}
}
