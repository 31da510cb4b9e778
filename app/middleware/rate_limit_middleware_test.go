package middleware

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRequestLogRepo is an in-memory APIRequestLogRepository for middleware
// tests. CountSince mirrors the real repo's created_at >= since semantics.
type stubRequestLogRepo struct {
	mu      sync.Mutex
	rows    []models.APIRequestLog
	saveErr error
}

func (s *stubRequestLogRepo) ByID(ctx context.Context, id uint) (*models.APIRequestLog, error) {
	return nil, nil
}

func (s *stubRequestLogRepo) ByFilter(ctx context.Context, filter models.APIRequestLogFilter, orderBy string, limit, offset int) ([]*models.APIRequestLog, error) {
	return nil, nil
}

func (s *stubRequestLogRepo) Save(ctx context.Context, row *models.APIRequestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = utils.UTCNow()
	}
	s.rows = append(s.rows, *row)
	return nil
}

func (s *stubRequestLogRepo) SaveBatch(ctx context.Context, rows []*models.APIRequestLog) error {
	for _, row := range rows {
		if err := s.Save(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRequestLogRepo) Count(ctx context.Context, filter models.APIRequestLogFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

func (s *stubRequestLogRepo) Exists(ctx context.Context, filter models.APIRequestLogFilter) (bool, error) {
	c, err := s.Count(ctx, filter)
	return c > 0, err
}

func (s *stubRequestLogRepo) CountSince(ctx context.Context, projectID uint, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, row := range s.rows {
		if row.ProjectID == projectID && !row.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// age shifts every stored row back in time, simulating the window rolling past.
func (s *stubRequestLogRepo) age(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		s.rows[i].CreatedAt = s.rows[i].CreatedAt.Add(-d)
	}
}

func (s *stubRequestLogRepo) record(projectID uint, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, models.APIRequestLog{
		ProjectID:  projectID,
		Method:     fiber.MethodGet,
		Endpoint:   "/ping",
		StatusCode: fiber.StatusOK,
		CreatedAt:  at,
	})
}

func testProject(perMinute, perDay int) *models.APIProject {
	return &models.APIProject{
		ID:                 1,
		Name:               "Test Project",
		IsActive:           utils.ToPtr(true),
		RateLimitPerMinute: perMinute,
		RateLimitPerDay:    perDay,
	}
}

// newLimitedApp wires the authenticated-surface chain the way the router does:
// the request logger writes the rows the limiter counts.
func newLimitedApp(repo *stubRequestLogRepo, project *models.APIProject) *fiber.App {
	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		if project != nil {
			c.Locals(APIProjectLocalKey, project)
		}
		return c.Next()
	})
	app.Use(NewRequestLogMiddleware(repo).Log())
	app.Use(NewRateLimitMiddleware(repo).Limit())
	app.Get("/ping", func(c fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("DeniesAtPerMinuteBoundaryAndRecoversAfterWindowRolls", func(t *testing.T) {
		repo := &stubRequestLogRepo{}
		app := newLimitedApp(repo, testProject(5, 10000))

		for i := 0; i < 5; i++ {
			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		}

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

		reset := resp.Header.Get("X-RateLimit-Reset")
		require.NotEmpty(t, reset)
		resetAt, err := time.Parse(time.RFC3339, reset)
		require.NoError(t, err)
		assert.True(t, resetAt.After(utils.UTCNow().Add(-time.Minute)))

		// Once every counted call falls outside the rolling minute, the
		// project is back under its ceiling.
		repo.age(61 * time.Second)

		resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("DailyCeilingDeniesUntilMidnight", func(t *testing.T) {
		repo := &stubRequestLogRepo{}
		app := newLimitedApp(repo, testProject(1000, 3))

		// Three calls earlier today, all outside the rolling minute.
		for i := 0; i < 3; i++ {
			repo.record(1, utils.UTCNow().Add(-2*time.Hour))
		}

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

		resetAt, err := time.Parse(time.RFC3339, resp.Header.Get("X-RateLimit-Reset"))
		require.NoError(t, err)
		assert.True(t, resetAt.After(time.Now().Add(-time.Minute)))
	})

	t.Run("RemainingHeaderCarriesTighterBudget", func(t *testing.T) {
		repo := &stubRequestLogRepo{}
		app := newLimitedApp(repo, testProject(5, 10000))

		repo.record(1, utils.UTCNow())
		repo.record(1, utils.UTCNow())

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Remaining"))
	})

	t.Run("ZeroConfiguredLimitsFallBackToDefaults", func(t *testing.T) {
		repo := &stubRequestLogRepo{}
		app := newLimitedApp(repo, testProject(0, 0))

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("MissingProjectIsUnauthorized", func(t *testing.T) {
		repo := &stubRequestLogRepo{}
		app := newLimitedApp(repo, nil)

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
