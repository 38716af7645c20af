// Package router provides HTTP routing, middleware configuration, and server setup for the admin API
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/amirphl/promo-engine/app/dto"
	"github.com/amirphl/promo-engine/app/handlers"
	"github.com/amirphl/promo-engine/app/middleware"
	"github.com/amirphl/promo-engine/config"
	"github.com/amirphl/promo-engine/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	Shutdown(timeout time.Duration) error
	GetApp() *fiber.App
}

// Handlers groups the admin API handlers the router mounts
type Handlers struct {
	Auth      handlers.AdminHandlerInterface
	Campaigns handlers.CampaignAdminHandlerInterface
	Users     handlers.UserAdminHandlerInterface
	Reports   handlers.ReportHandlerInterface
	Settings  handlers.SettingsHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	handlers       Handlers
	authMiddleware *middleware.AuthMiddleware
	serverCfg      config.ServerConfig
	metricsCfg     config.MetricsConfig
	version        string
	logger         *zap.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	serverCfg config.ServerConfig,
	metricsCfg config.MetricsConfig,
	version string,
	logger *zap.Logger,
) Router {
	r := &FiberRouter{
		handlers:       h,
		authMiddleware: authMiddleware,
		serverCfg:      serverCfg,
		metricsCfg:     metricsCfg,
		version:        version,
		logger:         logger,
	}

	r.app = fiber.New(fiber.Config{
		AppName:      "Promo Engine Admin API",
		ServerHeader: "promo-engine",
		ErrorHandler: r.errorHandler,
		BodyLimit:    serverCfg.BodyLimit,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		IdleTimeout:  serverCfg.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return r
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	r.app.Get("/health", r.healthCheck)
	if r.metricsCfg.Enabled {
		r.app.Get(r.metricsCfg.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")
	api.Get("/health", r.healthCheck)

	admin := api.Group("/admin")
	admin.Use(limiter.New(limiter.Config{
		Max:          r.rateLimit(),
		Expiration:   1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string { return c.IP() },
		LimitReached: tooManyRequests,
	}))

	// Login gets a stricter limit than the rest of the admin surface
	auth := admin.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:          20,
		Expiration:   1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string { return c.IP() },
		LimitReached: tooManyRequests,
	}))
	auth.Post("/login", r.handlers.Auth.Login)

	requireAdmin := r.authMiddleware.AdminAuthenticate()

	campaigns := admin.Group("/campaigns", requireAdmin)
	campaigns.Post("", r.handlers.Campaigns.CreateCampaign)
	campaigns.Get("", r.handlers.Campaigns.ListCampaigns)
	campaigns.Get("/:id", r.handlers.Campaigns.GetCampaign)
	campaigns.Get("/:id/winners", r.handlers.Reports.ListWinners)
	campaigns.Get("/:id/winners.xlsx", r.handlers.Reports.DownloadWinners)

	users := admin.Group("/users", requireAdmin)
	users.Post("/:id/message", r.handlers.Users.SendMessage)
	users.Post("/:id/block", r.handlers.Users.SetBlocked)
	users.Post("/:id/receipts", r.handlers.Users.AddReceipt)

	admin.Get("/stats", requireAdmin, r.handlers.Reports.Stats)
	admin.Get("/settings", requireAdmin, r.handlers.Settings.GetSettings)
	admin.Put("/settings", requireAdmin, r.handlers.Settings.UpdateSettings)
	admin.Put("/messages", requireAdmin, r.handlers.Settings.UpdateMessages)

	r.app.Use(r.notFoundHandler)

	r.logger.Info("routes configured", zap.Bool("metrics", r.metricsCfg.Enabled))
}

func (r *FiberRouter) rateLimit() int {
	if r.serverCfg.RateLimit > 0 {
		return r.serverCfg.RateLimit
	}
	return 600
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error("panic while serving request",
				zap.Any("error", e),
				zap.String("request_id", requestid.FromContext(c)),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("ip", c.IP()))
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000,
		ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-site",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.serverCfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-ID",
		},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           utils.CORSMaxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// xlsx is already zip-compressed
			return strings.HasSuffix(c.Path(), ".xlsx")
		},
	}))

	r.app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     `{"time":"${time}","request_id":"${respHeader:X-Request-ID}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/api/v1/health" || c.Path() == r.metricsCfg.Path
		},
	}))

	if r.metricsCfg.Enabled {
		r.app.Use(middleware.Metrics())
	}
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.logger.Info("starting admin API", zap.String("address", address))
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting connections and waits for in-flight requests up to timeout
func (r *FiberRouter) Shutdown(timeout time.Duration) error {
	return r.app.ShutdownWithTimeout(timeout)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.version,
			"service":   "promo-engine",
		},
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

// errorHandler renders errors that escaped the handlers
func (r *FiberRouter) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		r.logger.Error("request failed", zap.Int("status", code), zap.Error(err), zap.String("path", c.Path()))
	}

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func tooManyRequests(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error:   dto.ErrorDetail{Code: "RATE_LIMIT_EXCEEDED"},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
