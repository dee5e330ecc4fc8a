package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/ManuelReschke/FoodFox/internal/api/v1"
	"github.com/ManuelReschke/FoodFox/internal/pkg/middleware"
)

type ApiRouter struct {
	server  *apiv1.APIServer
	limit   int
	storage fiber.Storage
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        h.limit,
		Expiration: time.Minute,
		Storage:    h.storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := c.Get(middleware.HeaderUserID); id != "" {
				return "user:" + id
			}
			return c.IP()
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1", middleware.Identity())
	apiv1.RegisterHandlers(v1, h.server)
}

// NewApiRouter mounts server under /api/v1 with a per-identity rate limit of
// limit requests per minute.
func NewApiRouter(server *apiv1.APIServer, limit int) *ApiRouter {
	if limit <= 0 {
		limit = 120
	}
	return &ApiRouter{server: server, limit: limit}
}

// WithStorage keeps limiter counters in storage instead of process memory.
func (h *ApiRouter) WithStorage(storage fiber.Storage) *ApiRouter {
	h.storage = storage
	return h
}
