// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// Locals keys set by the API auth middleware
const (
	APIProjectLocalKey = "api_project"
	RequestIDLocalKey  = "request_id"
)

const projectCacheTTL = 60 * time.Second

// APIAuthMiddleware validates project key/secret credentials for the
// authenticated API surface
type APIAuthMiddleware struct {
	projectRepo repository.APIProjectRepository
	rc          *redis.Client
}

// NewAPIAuthMiddleware creates a new API authentication middleware. The redis
// client is optional; without it every call hits the datastore.
func NewAPIAuthMiddleware(projectRepo repository.APIProjectRepository, rc *redis.Client) *APIAuthMiddleware {
	return &APIAuthMiddleware{
		projectRepo: projectRepo,
		rc:          rc,
	}
}

// Authenticate validates the X-API-Key / X-API-Secret pair. All credential
// failures answer 401 without revealing which half was wrong.
func (m *APIAuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		apiKey := c.Get("X-API-Key")
		apiSecret := c.Get("X-API-Secret")
		if apiKey == "" || apiSecret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Missing credentials",
				Error: dto.ErrorDetail{
					Code: "MISSING_CREDENTIALS",
				},
			})
		}

		project, err := m.lookupProject(c, apiKey, apiSecret)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false,
				Message: "Authentication failed",
				Error: dto.ErrorDetail{
					Code: "AUTH_LOOKUP_FAILED",
				},
			})
		}
		if project == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid credentials",
				Error: dto.ErrorDetail{
					Code: "INVALID_CREDENTIALS",
				},
			})
		}
		if !project.Active() {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Project is inactive",
				Error: dto.ErrorDetail{
					Code: "PROJECT_INACTIVE",
				},
			})
		}

		c.Locals(APIProjectLocalKey, project)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals(RequestIDLocalKey, requestID)
		}

		return c.Next()
	}
}

// lookupProject resolves a project by key through the cache, then verifies the
// secret locally so a cached row never weakens the credential check.
func (m *APIAuthMiddleware) lookupProject(c fiber.Ctx, apiKey, apiSecret string) (*models.APIProject, error) {
	ctx := c.Context()

	if m.rc != nil {
		if cached := m.readCache(ctx, apiKey); cached != nil {
			if cached.APISecret != apiSecret {
				return nil, nil
			}
			return cached, nil
		}
	}

	project, err := m.projectRepo.ByCredentials(ctx, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	if project != nil && m.rc != nil {
		m.writeCache(ctx, project)
	}
	return project, nil
}

func projectCacheKey(apiKey string) string {
	return fmt.Sprintf("gateway:api_project:%s", apiKey)
}

// cachedProject carries the credential fields the model's json tags hide
type cachedProject struct {
	Project   models.APIProject `json:"project"`
	APIKey    string            `json:"api_key"`
	APISecret string            `json:"api_secret"`
}

func (m *APIAuthMiddleware) readCache(ctx context.Context, apiKey string) *models.APIProject {
	raw, err := m.rc.Get(ctx, projectCacheKey(apiKey)).Bytes()
	if err != nil {
		return nil
	}
	var entry cachedProject
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil
	}
	project := entry.Project
	project.APIKey = entry.APIKey
	project.APISecret = entry.APISecret
	return &project
}

func (m *APIAuthMiddleware) writeCache(ctx context.Context, project *models.APIProject) {
	raw, err := json.Marshal(cachedProject{
		Project:   *project,
		APIKey:    project.APIKey,
		APISecret: project.APISecret,
	})
	if err != nil {
		return
	}
	// Best effort; a cache miss just means one extra datastore read.
	_ = m.rc.Set(ctx, projectCacheKey(project.APIKey), raw, projectCacheTTL).Err()
}

// ProjectFromContext returns the authenticated project stored by Authenticate
func ProjectFromContext(c fiber.Ctx) *models.APIProject {
	project, _ := c.Locals(APIProjectLocalKey).(*models.APIProject)
	return project
}
