package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/promo-engine/app/services"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAuthenticate(t *testing.T) {
	tokens, err := services.NewTokenService(time.Hour, "promo-engine-test", "test-secret-key-for-jwt-signing-32-chars")
	require.NoError(t, err)
	other, err := services.NewTokenService(time.Hour, "promo-engine-test", "another-secret-key-for-jwt-signing-32")
	require.NoError(t, err)

	valid, _, err := tokens.GenerateAdminToken("admin")
	require.NoError(t, err)
	forged, _, err := other.GenerateAdminToken("admin")
	require.NoError(t, err)

	app := fiber.New()
	app.Use(Metrics())
	app.Get("/admin", NewAuthMiddleware(tokens).AdminAuthenticate(), func(c fiber.Ctx) error {
		username, ok := GetAdminUsernameFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		claims, ok := GetTokenClaimsFromContext(c)
		if !ok || claims.TokenID == "" {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(username)
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid token", header: "Bearer " + valid, status: fiber.StatusOK},
		{name: "missing header", status: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: fiber.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", status: fiber.StatusUnauthorized},
		{name: "foreign signature", header: "Bearer " + forged, status: fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
