package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/promo-engine/app/handlers"
	"github.com/amirphl/promo-engine/app/middleware"
	"github.com/amirphl/promo-engine/app/services"
	businessflow "github.com/amirphl/promo-engine/business_flow"
	"github.com/amirphl/promo-engine/config"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T) *fiber.App {
	t.Helper()
	logger := zaptest.NewLogger(t)
	tokens, err := services.NewTokenService(time.Hour, "promo-engine-test", "test-secret-key-for-jwt-signing-32-chars")
	require.NoError(t, err)

	h := Handlers{
		Auth:      handlers.NewAdminHandler(businessflow.NewAdminAuthFlow(config.AdminConfig{Username: "admin"}, tokens), logger),
		Campaigns: handlers.NewCampaignAdminHandler(nil, logger),
		Users:     handlers.NewUserAdminHandler(nil, logger),
		Reports:   handlers.NewReportHandler(nil, logger),
		Settings:  handlers.NewSettingsHandler(nil, logger),
	}
	r := NewFiberRouter(h, middleware.NewAuthMiddleware(tokens),
		config.ServerConfig{BodyLimit: 1 << 20, RateLimit: 100},
		config.MetricsConfig{Enabled: true, Path: "/metrics"},
		"test", logger)
	r.SetupRoutes()
	return r.GetApp()
}

func TestRoutes(t *testing.T) {
	app := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{name: "health", method: http.MethodGet, target: "/health", status: fiber.StatusOK},
		{name: "versioned health", method: http.MethodGet, target: "/api/v1/health", status: fiber.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", status: fiber.StatusOK},
		{name: "login is public", method: http.MethodPost, target: "/api/v1/admin/auth/login",
			body: `{"username":"admin","password":"password123"}`, status: fiber.StatusServiceUnavailable},
		{name: "stats requires token", method: http.MethodGet, target: "/api/v1/admin/stats", status: fiber.StatusUnauthorized},
		{name: "campaigns require token", method: http.MethodGet, target: "/api/v1/admin/campaigns", status: fiber.StatusUnauthorized},
		{name: "users require token", method: http.MethodPost, target: "/api/v1/admin/users/1/block", body: `{}`, status: fiber.StatusUnauthorized},
		{name: "unknown route", method: http.MethodGet, target: "/api/v1/nope", status: fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.target != "/metrics" {
				assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
			}
		})
	}
}
