package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/FoodFox/internal/pkg/usercontext"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Identity())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(usercontext.GetUserContext(c))
	})
	app.Get("/me", RequireUser, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func TestIdentityParsesHeaders(t *testing.T) {
	app := newApp()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(HeaderUserID, "42")
	req.Header.Set(HeaderUserRole, "Admin")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var u usercontext.UserContext
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
	assert.Equal(t, uint(42), u.UserID)
	assert.True(t, u.IsAdmin)
}

func TestIdentityIgnoresInvalidID(t *testing.T) {
	app := newApp()
	for _, raw := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set(HeaderUserID, raw)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, raw)
	}
}

func TestRequireAdmin(t *testing.T) {
	app := newApp()
	tests := []struct {
		name   string
		id     string
		role   string
		status int
	}{
		{name: "anonymous", status: fiber.StatusUnauthorized},
		{name: "customer", id: "7", role: "customer", status: fiber.StatusForbidden},
		{name: "admin", id: "1", role: "admin", status: fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.id != "" {
				req.Header.Set(HeaderUserID, tt.id)
				req.Header.Set(HeaderUserRole, tt.role)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
