package middleware

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirphl/Susanoo/models"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedApp(repo *stubRequestLogRepo, project *models.APIProject) *fiber.App {
	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		if project != nil {
			c.Locals(APIProjectLocalKey, project)
		}
		return c.Next()
	})
	app.Use(NewRequestLogMiddleware(repo).Log())
	app.Post("/send", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestRequestLogMiddleware(t *testing.T) {
	t.Run("WritesOneRowPerCall", func(t *testing.T) {
		repo := &stubRequestLogRepo{}
		app := newLoggedApp(repo, testProject(60, 10000))

		req := httptest.NewRequest(fiber.MethodPost, "/send", strings.NewReader(`{"to":"5511999998888"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Response-Time"))

		require.Len(t, repo.rows, 1)
		row := repo.rows[0]
		assert.Equal(t, uint(1), row.ProjectID)
		assert.Equal(t, fiber.MethodPost, row.Method)
		assert.Equal(t, "/send", row.Endpoint)
		assert.Equal(t, fiber.StatusOK, row.StatusCode)
		assert.NotNil(t, row.RequestBody)
		assert.NotNil(t, row.ResponseBody)
		assert.Nil(t, row.ErrorMessage)
	})

	t.Run("SaveFailureDoesNotBreakResponse", func(t *testing.T) {
		repo := &stubRequestLogRepo{saveErr: errors.New("insert failed")}
		app := newLoggedApp(repo, testProject(60, 10000))

		req := httptest.NewRequest(fiber.MethodPost, "/send", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Empty(t, repo.rows)
	})

	t.Run("SkipsUnauthenticatedCalls", func(t *testing.T) {
		repo := &stubRequestLogRepo{}
		app := newLoggedApp(repo, nil)

		req := httptest.NewRequest(fiber.MethodPost, "/send", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Empty(t, repo.rows)
	})
}
