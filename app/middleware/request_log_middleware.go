package middleware

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/gofiber/fiber/v3"
)

const requestLogWriteTimeout = 5 * time.Second

// RequestLogMiddleware writes one audit row per authenticated API call,
// regardless of outcome. The same table feeds the rate limiter, so skipping a
// row would both lose audit data and leak quota.
type RequestLogMiddleware struct {
	requestLogRepo repository.APIRequestLogRepository
}

// NewRequestLogMiddleware creates a new request log middleware
func NewRequestLogMiddleware(requestLogRepo repository.APIRequestLogRepository) *RequestLogMiddleware {
	return &RequestLogMiddleware{
		requestLogRepo: requestLogRepo,
	}
}

// Log records the call after the rest of the chain finishes. It also stamps
// X-Response-Time on the way out.
func (m *RequestLogMiddleware) Log() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := utils.UTCNow()

		handlerErr := c.Next()

		latency := time.Since(start)
		c.Set("X-Response-Time", strconv.FormatInt(latency.Milliseconds(), 10)+"ms")

		project := ProjectFromContext(c)
		if project == nil {
			return handlerErr
		}

		row := &models.APIRequestLog{
			ProjectID:  project.ID,
			Method:     c.Method(),
			Endpoint:   c.Path(),
			StatusCode: c.Response().StatusCode(),
			LatencyMS:  latency.Milliseconds(),
			CreatedAt:  start,
		}
		if c.Method() == fiber.MethodPost {
			row.RequestBody = jsonBody(c.Body())
		}
		row.ResponseBody = jsonBody(c.Response().Body())
		if handlerErr != nil {
			row.ErrorMessage = utils.ToPtr(handlerErr.Error())
		} else if row.StatusCode >= 400 {
			row.ErrorMessage = utils.ToPtr(string(c.Response().Body()))
		}

		// The request context is gone once the response is sent; the audit
		// write gets its own bounded context. A lost row also means a lost
		// rate-limit count, so the failure must at least be visible.
		ctx, cancel := context.WithTimeout(context.Background(), requestLogWriteTimeout)
		defer cancel()
		if err := m.requestLogRepo.Save(ctx, row); err != nil {
			log.Println("Failed to write request log", err)
		}

		return handlerErr
	}
}

// jsonBody returns the body when it is valid JSON, nil otherwise. The columns
// are jsonb; storing a non-JSON body would fail the whole insert.
func jsonBody(body []byte) json.RawMessage {
	if len(body) == 0 || !json.Valid(body) {
		return nil
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out
}
