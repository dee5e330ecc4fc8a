package usercontext

import "github.com/gofiber/fiber/v2"

const (
	// Locals key of the request identity
	localsKey = "USER_CONTEXT"

	// RoleAdmin grants the privileged operator routes.
	RoleAdmin = "admin"
)

// UserContext is the identity asserted by the upstream gateway for a request
type UserContext struct {
	UserID  uint   `json:"user_id"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

// IsAuthenticated reports whether a user id was supplied
func (u UserContext) IsAuthenticated() bool {
	return u.UserID != 0
}

// Set stores the identity on the fiber context
func Set(c *fiber.Ctx, u UserContext) {
	c.Locals(localsKey, u)
}

// GetUserContext retrieves the user context from fiber context
// Returns an anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if u, ok := c.Locals(localsKey).(UserContext); ok {
		return u
	}
	return UserContext{}
}

// GetUserID returns the current user's ID, or 0 for anonymous requests
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}
