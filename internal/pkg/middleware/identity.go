package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/FoodFox/internal/pkg/usercontext"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Identity reads the identity headers set by the authenticating gateway.
// Requests without a valid user id continue as anonymous.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(HeaderUserID))
		if raw == "" {
			return c.Next()
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			log.Warnf("[Identity] Ignoring invalid %s header %q", HeaderUserID, raw)
			return c.Next()
		}
		role := strings.ToLower(strings.TrimSpace(c.Get(HeaderUserRole)))
		usercontext.Set(c, usercontext.UserContext{
			UserID:  uint(id),
			Role:    role,
			IsAdmin: role == usercontext.RoleAdmin,
		})
		return c.Next()
	}
}

// RequireUser rejects anonymous requests with a JSON 401.
func RequireUser(c *fiber.Ctx) error {
	if !usercontext.GetUserContext(c).IsAuthenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "missing user identity",
		})
	}
	return c.Next()
}

// RequireAdmin allows only admin identities.
func RequireAdmin(c *fiber.Ctx) error {
	u := usercontext.GetUserContext(c)
	if !u.IsAuthenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "missing user identity",
		})
	}
	if !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin role required",
		})
	}
	return c.Next()
}
