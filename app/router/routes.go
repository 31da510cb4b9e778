// Package router provides HTTP routing, middleware configuration, and server setup for the gateway
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/handlers"
	"github.com/amirphl/Susanoo/app/middleware"
	"github.com/amirphl/Susanoo/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	webhookHandler handlers.WebhookHandlerInterface
	messageHandler handlers.MessageHandlerInterface
	authMW         *middleware.APIAuthMiddleware
	requestLogMW   *middleware.RequestLogMiddleware
	rateLimitMW    *middleware.RateLimitMiddleware
	allowedOrigins []string
	metricsPath    string
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	webhookHandler handlers.WebhookHandlerInterface,
	messageHandler handlers.MessageHandlerInterface,
	authMW *middleware.APIAuthMiddleware,
	requestLogMW *middleware.RequestLogMiddleware,
	rateLimitMW *middleware.RateLimitMiddleware,
	allowedOrigins []string,
	metricsPath string,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Susanoo Gateway",
		ServerHeader: "Susanoo",
		ErrorHandler: errorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:            app,
		webhookHandler: webhookHandler,
		messageHandler: messageHandler,
		authMW:         authMW,
		requestLogMW:   requestLogMW,
		rateLimitMW:    rateLimitMW,
		allowedOrigins: allowedOrigins,
		metricsPath:    metricsPath,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	if r.metricsPath != "" {
		r.app.Get(r.metricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")

	// Liveness probe, registered before the auth chain so it bypasses
	// credentials and rate limiting entirely.
	api.Get("/health", r.messageHandler.Health)

	// Authenticated surface. The request logger sits between auth and the
	// limiter so denied calls still land in the audit log the limiter counts.
	api.Use(r.authMW.Authenticate())
	api.Use(r.requestLogMW.Log())
	api.Use(r.rateLimitMW.Limit())

	api.Post("/send", r.messageHandler.SendMessage)
	api.Post("/send-bulk", r.messageHandler.SendBulk)
	api.Get("/status/:messageId", r.messageHandler.GetMessageStatus)
	api.Post("/events", r.messageHandler.EnqueueEvent)
	api.Get("/instances", r.messageHandler.ListInstances)

	// Unknown API paths answer with the endpoint catalog.
	api.Use(r.apiNotFoundHandler)

	// Webhook ingestion accepts three path shapes; no authentication is
	// performed beyond the integration's connection state.
	r.app.Post("/webhook/:provider/:integrationId", r.webhookHandler.HandleWebhook)
	r.app.Post("/:provider/:integrationId", r.webhookHandler.HandleWebhook)
	r.app.Post("/:integrationId", r.webhookHandler.HandleWebhook)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000, // 1 year
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	// CORS middleware
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.allowedOrigins,
		AllowMethods: []string{
			"GET", "POST", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Requested-With",
			"X-Request-ID",
			"X-API-Key",
			"X-API-Secret",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Response-Time",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: utils.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Prometheus HTTP metrics
	r.app.Use(middleware.Metrics())

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Edge abuse mitigation by caller IP, independent of the per-project
	// limiter that runs after authentication.
	r.app.Use(limiter.New(limiter.Config{
		Max:        2000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// apiNotFoundHandler lists the valid API endpoints for unknown API paths
func (r *FiberRouter) apiNotFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "Unknown endpoint",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path": c.Path(),
				"endpoints": []string{
					"POST /api/v1/send",
					"POST /api/v1/send-bulk",
					"GET /api/v1/status/{messageId}",
					"POST /api/v1/events",
					"GET /api/v1/instances",
					"GET /api/v1/health",
				},
			},
		},
	})
}

// notFoundHandler answers unknown non-API paths
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// errorHandler is the global Fiber error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
