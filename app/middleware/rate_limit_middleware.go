package middleware

import (
	"strconv"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/gofiber/fiber/v3"
)

// RateLimitMiddleware enforces the per-project rolling-minute and
// calendar-day ceilings by counting request-log rows. Every limiting decision
// can be reconstructed from the audit log; there is no in-process counter
// state.
type RateLimitMiddleware struct {
	requestLogRepo repository.APIRequestLogRepository
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(requestLogRepo repository.APIRequestLogRepository) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requestLogRepo: requestLogRepo,
	}
}

// Limit runs both ceilings before any business logic. Denials answer 429 with
// the window's reset time; allowed calls carry the tighter remaining budget.
func (m *RateLimitMiddleware) Limit() fiber.Handler {
	return func(c fiber.Ctx) error {
		project := ProjectFromContext(c)
		if project == nil {
			// Auth must run first; treat a missing project as a wiring bug.
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Missing credentials",
				Error: dto.ErrorDetail{
					Code: "MISSING_CREDENTIALS",
				},
			})
		}

		now := utils.UTCNow()
		ctx := c.Context()

		perMinute := project.RateLimitPerMinute
		if perMinute <= 0 {
			perMinute = utils.DefaultRateLimitPerMinute
		}
		perDay := project.RateLimitPerDay
		if perDay <= 0 {
			perDay = utils.DefaultRateLimitPerDay
		}

		minuteCount, err := m.requestLogRepo.CountSince(ctx, project.ID, now.Add(-time.Minute))
		if err != nil {
			return m.countFailed(c)
		}
		if minuteCount >= int64(perMinute) {
			RecordRateLimitDenial("minute")
			return m.deny(c, "Per-minute rate limit exceeded", utils.NextMinute(now))
		}

		dayCount, err := m.requestLogRepo.CountSince(ctx, project.ID, utils.StartOfDay(now))
		if err != nil {
			return m.countFailed(c)
		}
		if dayCount >= int64(perDay) {
			RecordRateLimitDenial("day")
			return m.deny(c, "Daily rate limit exceeded", utils.NextMidnight(now))
		}

		remaining := min(int64(perMinute)-minuteCount, int64(perDay)-dayCount)
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		return c.Next()
	}
}

func (m *RateLimitMiddleware) deny(c fiber.Ctx, message string, resetAt time.Time) error {
	c.Set("X-RateLimit-Remaining", "0")
	c.Set("X-RateLimit-Reset", resetAt.Format(time.RFC3339))
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
			Details: fiber.Map{
				"resetAt": resetAt.Format(time.RFC3339),
			},
		},
	})
}

func (m *RateLimitMiddleware) countFailed(c fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
		Success: false,
		Message: "Rate limit check failed",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_CHECK_FAILED",
		},
	})
}
